package userservice

import (
	"strings"
)

// NormalizePhone keeps only the digits of phone and rewrites the 0098 / 98
// country prefix to the domestic 0, so every spelling of one number maps to
// the same key. Persian and Arabic-Indic digits count as digits.
func NormalizePhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		}
		return -1
	}, phone)

	switch {
	case strings.HasPrefix(digits, "0098"):
		return "0" + digits[4:]
	case strings.HasPrefix(digits, "98"):
		return "0" + digits[2:]
	}
	return digits
}
