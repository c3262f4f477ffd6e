// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package integrity

import "strings"

// normalizeISBN strips hyphens and spaces and upper-cases the check
// digit.
func normalizeISBN(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteRune('X')
		case r == '-' || r == ' ':
		default:
			// Keep unexpected characters so validation fails on them.
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validISBN10 checks length and the mod-11 checksum. The final digit
// may be X for the value ten.
func validISBN10(raw string) bool {
	s := normalizeISBN(raw)
	if len(s) != 10 {
		return false
	}
	sum := 0
	for i, r := range s {
		var v int
		switch {
		case r >= '0' && r <= '9':
			v = int(r - '0')
		case r == 'X' && i == 9:
			v = 10
		default:
			return false
		}
		sum += v * (10 - i)
	}
	return sum%11 == 0
}

// validISBN13 checks length and the alternating 1/3 mod-10 checksum.
func validISBN13(raw string) bool {
	s := normalizeISBN(raw)
	if len(s) != 13 {
		return false
	}
	sum := 0
	for i, r := range s {
		if r < '0' || r > '9' {
			return false
		}
		v := int(r - '0')
		if i%2 == 1 {
			v *= 3
		}
		sum += v
	}
	return sum%10 == 0
}
