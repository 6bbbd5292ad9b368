package models

// BannerRequest is the banner payload accepted from clients.
type BannerRequest struct {
	Type  string `json:"type" binding:"required,oneof=color image"`
	Value string `json:"value" binding:"required,max=2048"`
}

// CreateCardRequest represents the request body for creating a new card.
// Unknown fields are rejected at decode time.
type CreateCardRequest struct {
	CardLink    string         `json:"cardLink,omitempty" binding:"omitempty,max=120"`
	FullName    string         `json:"fullName" binding:"required,max=120"`
	Designation string         `json:"designation,omitempty" binding:"max=120"`
	Company     string         `json:"company,omitempty" binding:"max=120"`
	Bio         string         `json:"bio,omitempty" binding:"max=1000"`
	Phone       string         `json:"phone,omitempty" binding:"max=40"`
	Email       string         `json:"email,omitempty" binding:"omitempty,email"`
	Website     string         `json:"website,omitempty" binding:"omitempty,url"`
	ProfileURL  string         `json:"profileUrl,omitempty" binding:"omitempty,url"`
	LinkedIn    string         `json:"linkedin,omitempty" binding:"omitempty,url"`
	Twitter     string         `json:"twitter,omitempty" binding:"omitempty,url"`
	Instagram   string         `json:"instagram,omitempty" binding:"omitempty,url"`
	Facebook    string         `json:"facebook,omitempty" binding:"omitempty,url"`
	Banner      *BannerRequest `json:"banner,omitempty"`
	Layout      string         `json:"layout,omitempty" binding:"omitempty,oneof=minimal modern creative corporate glass elegant"`
	FontStyle   string         `json:"fontStyle,omitempty" binding:"omitempty,oneof=basic serif mono script wide bold"`
	CardSkin    string         `json:"cardSkin,omitempty" binding:"max=2048"`
	IsActive    *bool          `json:"isActive,omitempty"`
}

// UpdateCardRequest represents the request body for updating an existing card.
// Pointers distinguish fields that were omitted from fields set to their zero value.
type UpdateCardRequest struct {
	CardLink    *string        `json:"cardLink,omitempty" binding:"omitempty,max=120"`
	FullName    *string        `json:"fullName,omitempty" binding:"omitempty,min=1,max=120"`
	Designation *string        `json:"designation,omitempty" binding:"omitempty,max=120"`
	Company     *string        `json:"company,omitempty" binding:"omitempty,max=120"`
	Bio         *string        `json:"bio,omitempty" binding:"omitempty,max=1000"`
	Phone       *string        `json:"phone,omitempty" binding:"omitempty,max=40"`
	Email       *string        `json:"email,omitempty" binding:"omitempty,email"`
	Website     *string        `json:"website,omitempty" binding:"omitempty,url"`
	ProfileURL  *string        `json:"profileUrl,omitempty" binding:"omitempty,url"`
	LinkedIn    *string        `json:"linkedin,omitempty" binding:"omitempty,url"`
	Twitter     *string        `json:"twitter,omitempty" binding:"omitempty,url"`
	Instagram   *string        `json:"instagram,omitempty" binding:"omitempty,url"`
	Facebook    *string        `json:"facebook,omitempty" binding:"omitempty,url"`
	Banner      *BannerRequest `json:"banner,omitempty"`
	Layout      *string        `json:"layout,omitempty" binding:"omitempty,oneof=minimal modern creative corporate glass elegant"`
	FontStyle   *string        `json:"fontStyle,omitempty" binding:"omitempty,oneof=basic serif mono script wide bold"`
	CardSkin    *string        `json:"cardSkin,omitempty" binding:"omitempty,max=2048"`
	IsActive    *bool          `json:"isActive,omitempty"`
}

// UpdateProfileRequest represents the request body for PUT /users/me.
type UpdateProfileRequest struct {
	DisplayName  *string `json:"displayName,omitempty" binding:"omitempty,max=120"`
	Slug         *string `json:"slug,omitempty" binding:"omitempty,max=120"`
	FullName     *string `json:"fullName,omitempty" binding:"omitempty,max=120"`
	Designation  *string `json:"designation,omitempty" binding:"omitempty,max=120"`
	Company      *string `json:"company,omitempty" binding:"omitempty,max=120"`
	Bio          *string `json:"bio,omitempty" binding:"omitempty,max=1000"`
	Phone        *string `json:"phone,omitempty" binding:"omitempty,max=40"`
	Website      *string `json:"website,omitempty" binding:"omitempty,url"`
	ProfileImage *string `json:"profileImage,omitempty" binding:"omitempty,url"`
	LinkedIn     *string `json:"linkedin,omitempty" binding:"omitempty,url"`
	Twitter      *string `json:"twitter,omitempty" binding:"omitempty,url"`
	Instagram    *string `json:"instagram,omitempty" binding:"omitempty,url"`
	Facebook     *string `json:"facebook,omitempty" binding:"omitempty,url"`
}

// RegisterRequest creates the caller's profile together with a first card.
type RegisterRequest struct {
	Profile UpdateProfileRequest `json:"profile"`
	Card    CreateCardRequest    `json:"card"`
}

// ForgotPasswordRequest asks the identity provider for a password reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SelectPlanRequest is used by both plan selection and payment confirmation.
type SelectPlanRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// SaveScannedCardRequest bookmarks a public card into the caller's wallet.
type SaveScannedCardRequest struct {
	CardLink string `json:"cardLink" binding:"required,max=120"`
}
