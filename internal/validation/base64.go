package validation

import (
	"encoding/base64"

	validation "github.com/jellydator/validation"
)

// Base64 validates that a string is valid standard base64.
var Base64 = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_base64_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if _, err := base64.StdEncoding.DecodeString(s); err != nil {
		return validation.NewError("validation_base64", "must be valid base64-encoded data")
	}
	return nil
})

// DERSequence validates that a base64 string decodes to between min and max bytes and starts
// with the DER SEQUENCE tag. Invalid base64 is left to Base64.
func DERSequence(min, max int) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, ok := value.(string)
		if !ok {
			return validation.NewError("validation_der_type", "must be a string")
		}
		if s == "" {
			return nil
		}
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil
		}
		if len(raw) < min || len(raw) > max {
			return validation.NewError("validation_der_length", "decoded length is out of range").
				SetParams(map[string]interface{}{"min": min, "max": max})
		}
		if raw[0] != 0x30 {
			return validation.NewError("validation_der_sequence", "must be a DER-encoded SEQUENCE")
		}
		return nil
	})
}
