package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a user-typed quantity to a non-negative number.
//
// It accepts both dot (12.5) and comma (12,5) decimal separators, since site
// records are typed on keyboards of either convention. Signs, exponents and
// anything that is not a plain decimal are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("500")   -> 500, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("0")     -> 0, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ValidateAmount rejects negative and non-finite quantities.
func ValidateAmount(v float64) error {
	if v < 0 || v != v || v > maxAmount {
		return ErrInvalidAmount
	}
	return nil
}

const maxAmount = 1e15
