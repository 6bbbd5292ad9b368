package core

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"tapcard-backend/internal/config"
	"tapcard-backend/internal/db"
	"tapcard-backend/internal/models"
)

// userService implements the UserService interface.
type userService struct {
	users       db.UserRepository
	subs        db.SubscriptionRepository
	plans       *config.PlanCatalog
	entitlement EntitlementService
	resetLinks  PasswordResetLinker
	mail        MailSender
	logger      *zap.Logger
	now         func() time.Time
}

// NewUserService creates a new UserService instance. mail may be nil, in
// which case reset links are only returned to the caller.
func NewUserService(
	users db.UserRepository,
	subs db.SubscriptionRepository,
	plans *config.PlanCatalog,
	entitlement EntitlementService,
	resetLinks PasswordResetLinker,
	mail MailSender,
	logger *zap.Logger,
) UserService {
	return &userService{
		users:       users,
		subs:        subs,
		plans:       plans,
		entitlement: entitlement,
		resetLinks:  resetLinks,
		mail:        mail,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreate retrieves a user by ID, creating the profile on first sign-in.
// A FREE subscription is provisioned for both new and existing users that lack one.
func (s *userService) GetOrCreate(ctx context.Context, userID, email, displayName, photoURL string) (*models.User, bool, error) {
	if userID == "" {
		return nil, false, errors.New("userService: user ID cannot be empty")
	}
	now := s.now()

	user, err := s.users.GetByID(ctx, userID)
	created := false
	switch {
	case err == nil:
	case errors.Is(err, db.ErrNotFound):
		user = &models.User{
			ID:          userID,
			Email:       email,
			DisplayName: displayName,
			PhotoURL:    photoURL,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			if !errors.Is(err, db.ErrAlreadyExists) {
				return nil, false, fmt.Errorf("failed to create user (id: %s) after not found: %w", userID, err)
			}
			// Lost a race with a concurrent first sign-in.
			if user, err = s.users.GetByID(ctx, userID); err != nil {
				return nil, false, fmt.Errorf("failed to reload user '%s': %w", userID, err)
			}
		} else {
			created = true
		}
	default:
		return nil, false, fmt.Errorf("failed to get user by ID '%s' from repository: %w", userID, err)
	}

	if _, err := ensureSubscription(ctx, s.subs, s.plans, userID, now); err != nil {
		return nil, false, err
	}
	if created {
		s.logger.Info("User profile created", zap.String("userID", userID))
	}
	return user, created, nil
}

// GetByID retrieves a user by their ID.
func (s *userService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user by ID '%s' from repository: %w", userID, err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	if err := validateProfile(req); err != nil {
		return nil, err
	}
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	applyProfileUpdate(user, req)
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user '%s': %w", userID, err)
	}
	return user, nil
}

// Register creates (or reuses) the caller's account, applies the profile and
// creates the first card through the entitlement gate. Both payloads are
// validated before anything is written.
func (s *userService) Register(ctx context.Context, id Identity, req models.RegisterRequest) (*models.User, *models.Card, error) {
	if err := validateProfile(req.Profile); err != nil {
		return nil, nil, err
	}
	if err := validateStruct(req.Card); err != nil {
		return nil, nil, err
	}

	user, _, err := s.GetOrCreate(ctx, id.UID, id.Email, id.DisplayName, id.PhotoURL)
	if err != nil {
		return nil, nil, err
	}
	applyProfileUpdate(user, req.Profile)
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to update user '%s': %w", id.UID, err)
	}

	card, err := s.entitlement.CreateCard(ctx, id.UID, req.Card)
	if err != nil {
		return user, nil, err
	}
	return user, card, nil
}

func (s *userService) ForgotPassword(ctx context.Context, email string) (string, error) {
	if err := validate.Var(email, "required,email"); err != nil {
		return "", validationErr("a valid email is required")
	}
	link, err := s.resetLinks.PasswordResetLink(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return "", fmt.Errorf("%w: %s", ErrUserNotFound, email)
		}
		return "", fmt.Errorf("failed to generate password reset link: %w", err)
	}

	if s.mail != nil {
		body := "<p>We received a request to reset your password.</p>" +
			"<p><a href=\"" + html.EscapeString(link) + "\">Reset your password</a></p>" +
			"<p>If you did not ask for this, you can ignore this email.</p>"
		if err := s.mail.Send(email, "Reset your password", body); err != nil {
			s.logger.Warn("Failed to send password reset email", zap.String("email", email), zap.Error(err))
		}
	}
	return link, nil
}

func validateProfile(req models.UpdateProfileRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	if req.Slug != nil {
		if slug := NormalizeLink(*req.Slug); slug != "" {
			return ValidateLink(slug)
		}
	}
	return nil
}

func applyProfileUpdate(u *models.User, req models.UpdateProfileRequest) {
	if req.Slug != nil {
		slug := NormalizeLink(*req.Slug)
		req.Slug = &slug
	}
	setString(&u.DisplayName, req.DisplayName)
	setString(&u.Slug, req.Slug)
	setString(&u.FullName, req.FullName)
	setString(&u.Designation, req.Designation)
	setString(&u.Company, req.Company)
	setString(&u.Bio, req.Bio)
	setString(&u.Phone, req.Phone)
	setString(&u.Website, req.Website)
	setString(&u.ProfileImage, req.ProfileImage)
	setString(&u.LinkedIn, req.LinkedIn)
	setString(&u.Twitter, req.Twitter)
	setString(&u.Instagram, req.Instagram)
	setString(&u.Facebook, req.Facebook)
}
