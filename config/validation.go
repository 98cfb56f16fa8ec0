package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that the fields the server cannot run without are
// present. SMTP, CAPTCHA, and S3 settings are optional: their services
// degrade to logging / skipping / rejecting uploads and the rest of the
// portal keeps working.
func ValidateConfig(cfg *Config) error {
	var errs []string

	required := map[string]string{
		"ServerPort":       cfg.ServerPort,
		"DBHost":           cfg.DBHost,
		"DBPort":           cfg.DBPort,
		"DBUser":           cfg.DBUser,
		"DBName":           cfg.DBName,
		"JWTSecret":        cfg.JWTSecret,
		"AdminEmailDomain": cfg.AdminEmailDomain,
	}

	for field, value := range required {
		if value == "" {
			errs = append(errs, ValidationError{Field: field, Message: "is required"}.Error())
		}
	}

	if cfg.PassphraseHash == "" {
		// The portal is unusable for submitters without the gate, but the
		// admin side still works, so warn via error only alongside others.
		errs = append(errs, ValidationError{Field: "PassphraseHash", Message: "is required"}.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}
