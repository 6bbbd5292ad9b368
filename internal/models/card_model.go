package models

import "time"

// Banner types accepted on a card.
const (
	BannerTypeColor = "color"
	BannerTypeImage = "image"
)

// Layout and font variants a card can be rendered with.
const (
	LayoutMinimal   = "minimal"
	LayoutModern    = "modern"
	LayoutCreative  = "creative"
	LayoutCorporate = "corporate"
	LayoutGlass     = "glass"
	LayoutElegant   = "elegant"
)

// PremiumLayouts require the premiumLayouts plan feature.
var PremiumLayouts = map[string]bool{
	LayoutCorporate: true,
	LayoutGlass:     true,
	LayoutElegant:   true,
}

// Banner is the header area of a card: either a solid color or an image URL.
type Banner struct {
	Type  string `json:"type" firestore:"type"`
	Value string `json:"value" firestore:"value"`
}

// Card is a digital business card owned by exactly one user.
// The document ID is generated by the store; CardLink defaults to it.
type Card struct {
	ID          string    `json:"id" firestore:"-"`
	OwnerUID    string    `json:"ownerUid" firestore:"ownerUid"`
	CardLink    string    `json:"cardLink" firestore:"cardLink"`
	IsActive    bool      `json:"isActive" firestore:"isActive"`
	FullName    string    `json:"fullName" firestore:"fullName"`
	Designation string    `json:"designation,omitempty" firestore:"designation,omitempty"`
	Company     string    `json:"company,omitempty" firestore:"company,omitempty"`
	Bio         string    `json:"bio,omitempty" firestore:"bio,omitempty"`
	Phone       string    `json:"phone,omitempty" firestore:"phone,omitempty"`
	Email       string    `json:"email,omitempty" firestore:"email,omitempty"`
	Website     string    `json:"website,omitempty" firestore:"website,omitempty"`
	ProfileURL  string    `json:"profileUrl,omitempty" firestore:"profileUrl,omitempty"`
	LinkedIn    string    `json:"linkedin,omitempty" firestore:"linkedin,omitempty"`
	Twitter     string    `json:"twitter,omitempty" firestore:"twitter,omitempty"`
	Instagram   string    `json:"instagram,omitempty" firestore:"instagram,omitempty"`
	Facebook    string    `json:"facebook,omitempty" firestore:"facebook,omitempty"`
	Banner      Banner    `json:"banner" firestore:"banner"`
	Layout      string    `json:"layout" firestore:"layout"`
	FontStyle   string    `json:"fontStyle" firestore:"fontStyle"`
	CardSkin    string    `json:"cardSkin,omitempty" firestore:"cardSkin,omitempty"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// PublicLink returns the identifier the card is reachable by on the public route.
func (c *Card) PublicLink() string {
	if c.CardLink != "" {
		return c.CardLink
	}
	return c.ID
}
