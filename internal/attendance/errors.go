package attendance

import "errors"

// Rejections. An observation rejected with one of these leaves no trace in the store.
var (
	ErrEmployeeInactive         = errors.New("employee is not active")
	ErrBelowConfidenceThreshold = errors.New("confidence below threshold")
	ErrTooSoonSincePunch        = errors.New("too soon since last punch")
)

// IsRejection reports whether err is a policy rejection rather than a failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrEmployeeInactive) ||
		errors.Is(err, ErrBelowConfidenceThreshold) ||
		errors.Is(err, ErrTooSoonSincePunch)
}

// RejectionReason returns a short machine-readable reason for a rejection, or "".
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrEmployeeInactive):
		return "employee_inactive"
	case errors.Is(err, ErrBelowConfidenceThreshold):
		return "below_confidence_threshold"
	case errors.Is(err, ErrTooSoonSincePunch):
		return "too_soon_since_last_punch"
	}
	return ""
}
