package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidDrivers returns the supported store drivers.
func ValidDrivers() []string {
	return []string{"memory", "sqlite", "postgres", "redis", "mongo"}
}

// ValidLogLevels returns the accepted log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks c and returns every problem found, or nil.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.Wizard.ID == "" {
		errs = append(errs, ValidationError{Field: "wizard.id", Value: c.Wizard.ID, Message: "must be set"})
	}
	if !strings.Contains(c.Wizard.ParentURL, "{id}") {
		errs = append(errs, ValidationError{Field: "wizard.parent_url", Value: c.Wizard.ParentURL, Message: "must contain {id}"})
	}
	if c.Catalog.Path == "" {
		errs = append(errs, ValidationError{Field: "catalog.path", Value: c.Catalog.Path, Message: "must be set"})
	}

	if !slices.Contains(ValidDrivers(), c.Store.Driver) {
		errs = append(errs, ValidationError{
			Field:   "store.driver",
			Value:   c.Store.Driver,
			Message: "must be one of " + strings.Join(ValidDrivers(), ", "),
		})
	} else if c.Store.Driver != "memory" && c.Store.DSN == "" {
		errs = append(errs, ValidationError{Field: "store.dsn", Value: c.Store.DSN, Message: "required for " + c.Store.Driver})
	}

	if c.Admin.JWTSecret == "" {
		errs = append(errs, ValidationError{Field: "admin.jwt_secret", Value: "", Message: "must be set"})
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{Field: "log.level", Value: c.Log.Level, Message: "must be one of " + strings.Join(ValidLogLevels(), ", ")})
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, ValidationError{Field: "log.format", Value: c.Log.Format, Message: "must be text or json"})
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
