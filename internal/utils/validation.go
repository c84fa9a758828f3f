package utils

import (
	"strings"

	"github.com/mynurseshift/backend/internal/domain"
	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone parses a phone number, national numbers being read in the
// given default region, and returns it in E.164 form.
func NormalizePhone(raw string, region string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), region)
	if err != nil {
		return "", domain.WrapError(domain.KindValidationFailed, "invalid phone number", err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", domain.NewError(domain.KindValidationFailed, "invalid phone number")
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// ValidatePoleCode checks the short code of a pole: 2 to 16 upper-case
// letters, digits, dashes or underscores.
func ValidatePoleCode(code string) error {
	if len(code) < 2 || len(code) > 16 {
		return domain.NewError(domain.KindValidationFailed, "pole code must be 2 to 16 characters long")
	}
	for _, r := range code {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return domain.NewError(domain.KindValidationFailed, "pole code may only contain A-Z, 0-9, '-' and '_'")
		}
	}
	return nil
}

// ValidateServiceCapacity rejects negative capacities.
func ValidateServiceCapacity(capacity int32) error {
	if capacity < 0 {
		return domain.NewError(domain.KindValidationFailed, "capacity cannot be negative")
	}
	return nil
}
