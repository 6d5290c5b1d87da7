// internal/domain/lifecycle/gender.go
package lifecycle

import (
	"fmt"
	"strings"
)

// Gender of a person. The zero value means the gender is not on file.
type Gender string

const (
	GenderUnknown Gender = ""
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
)

// ParseGender accepts the stored profile values (case-insensitive, short forms allowed).
func ParseGender(value string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return GenderUnknown, nil
	case "male", "m":
		return GenderMale, nil
	case "female", "f":
		return GenderFemale, nil
	default:
		return GenderUnknown, fmt.Errorf("%w: unknown gender %q", ErrInvalidInput, value)
	}
}

func (g Gender) Known() bool {
	return g == GenderMale || g == GenderFemale
}
