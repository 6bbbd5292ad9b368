package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors shared by the card platform services.
var (
	ErrCardNotFound    = errors.New("card not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrForbiddenAccess = errors.New("access denied")
	ErrQuotaExceeded   = errors.New("card limit reached")
	ErrFeatureLocked   = errors.New("feature not available on the current plan")
	ErrValidation      = errors.New("validation failed")
	ErrLinkTaken       = errors.New("card link is already in use")
	ErrPlanNotFound    = errors.New("plan not found")
	ErrNoPendingPlan   = errors.New("no pending plan to confirm")
	ErrScannedNotFound = errors.New("card is not in the wallet")
)

// QuotaError reports a rejected creation with the plan and ceiling that caused it.
// errors.Is(err, ErrQuotaExceeded) holds for any *QuotaError.
type QuotaError struct {
	Plan    string
	Ceiling int
	Used    int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("card limit reached: your %s plan allows max %d cards (%d used). Upgrade to create more.",
		strings.ToLower(e.Plan), e.Ceiling, e.Used)
}

func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// FeatureError names the plan feature a request needs.
type FeatureError struct {
	Plan    string
	Feature string
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("%s is not available on the %s plan", e.Feature, strings.ToLower(e.Plan))
}

func (e *FeatureError) Is(target error) bool {
	return target == ErrFeatureLocked || target == ErrForbiddenAccess
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
