package api

import (
	"errors"
	"fmt"
)

var (
	// ErrResumeDenied is the reason a resume request was downgraded to a new
	// submission: missing or wrong token, unknown id, or a submission that
	// can no longer be resumed.
	ErrResumeDenied = errors.New("resume denied")

	// ErrOutOfRangeStep is the reason a requested step was discarded.
	ErrOutOfRangeStep = errors.New("step out of range")

	// ErrForeignSubmission is the reason a save was ignored: it belongs to a
	// different form or came from the administrative path.
	ErrForeignSubmission = errors.New("foreign submission")
)

// ConfigurationError is returned when a wizard cannot be used at all, for
// example because its field-group catalog is empty or unavailable.
type ConfigurationError struct {
	WizardID string
	Reason   string
	Err      error
}

func (e *ConfigurationError) Error() string {
	msg := "wizard " + e.WizardID + " is not usable: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError builds a ConfigurationError.
func NewConfigurationError(wizardID, reason string, err error) error {
	return &ConfigurationError{WizardID: wizardID, Reason: reason, Err: err}
}

// IsConfigurationError returns the ConfigurationError wrapped in err, if any.
func IsConfigurationError(err error) (*ConfigurationError, bool) {
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// DowngradeReason wraps one of the downgrade sentinels with detail.
func DowngradeReason(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
