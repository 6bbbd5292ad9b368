package models

import "time"

// ScannedCard is a viewer's wallet entry pointing at a public card link.
type ScannedCard struct {
	CardLink  string    `json:"cardLink" firestore:"cardLink"`
	CardID    string    `json:"cardId" firestore:"cardId"`
	ScannedAt time.Time `json:"scannedAt" firestore:"scannedAt"`
}

// ScannedCardView pairs a wallet entry with the card it resolves to.
type ScannedCardView struct {
	Card      *Card     `json:"card"`
	ScannedAt time.Time `json:"scannedAt"`
}
