package models

import "time"

// User represents a user in the system.
type User struct {
	ID           string    `json:"id" firestore:"-"` // Firebase Auth UID, also the document ID
	Email        string    `json:"email" firestore:"email"`
	DisplayName  string    `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	PhotoURL     string    `json:"photoURL,omitempty" firestore:"photoURL,omitempty"`
	Slug         string    `json:"slug,omitempty" firestore:"slug,omitempty"`
	FullName     string    `json:"fullName,omitempty" firestore:"fullName,omitempty"`
	Designation  string    `json:"designation,omitempty" firestore:"designation,omitempty"`
	Company      string    `json:"company,omitempty" firestore:"company,omitempty"`
	Bio          string    `json:"bio,omitempty" firestore:"bio,omitempty"`
	Phone        string    `json:"phone,omitempty" firestore:"phone,omitempty"`
	Website      string    `json:"website,omitempty" firestore:"website,omitempty"`
	ProfileImage string    `json:"profileImage,omitempty" firestore:"profileImage,omitempty"`
	LinkedIn     string    `json:"linkedin,omitempty" firestore:"linkedin,omitempty"`
	Twitter      string    `json:"twitter,omitempty" firestore:"twitter,omitempty"`
	Instagram    string    `json:"instagram,omitempty" firestore:"instagram,omitempty"`
	Facebook     string    `json:"facebook,omitempty" firestore:"facebook,omitempty"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" firestore:"updatedAt"`
}
