// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package models

import "fmt"

// BookStatus is the reading status of a book.
//
// The store persists statuses as strings; ParseStatus validates a stored
// string into the enumeration. An unrecognized stored value is an integrity
// violation, never a crash.
type BookStatus int

const (
	// StatusWishlist indicates a book the user wants to read.
	StatusWishlist BookStatus = iota
	// StatusReading indicates a book currently being read.
	StatusReading
	// StatusCompleted indicates a finished book.
	StatusCompleted
	// StatusOnHold indicates a book set aside for later.
	StatusOnHold
	// StatusDNF indicates a book abandoned without finishing.
	StatusDNF
)

// String returns the stored string form of the status.
func (s BookStatus) String() string {
	switch s {
	case StatusWishlist:
		return "wishlist"
	case StatusReading:
		return "reading"
	case StatusCompleted:
		return "completed"
	case StatusOnHold:
		return "on_hold"
	case StatusDNF:
		return "dnf"
	default:
		return "unknown"
	}
}

// IsUnread reports whether the status counts as unread for discovery
// purposes (wishlist or on hold).
func (s BookStatus) IsUnread() bool {
	return s == StatusWishlist || s == StatusOnHold
}

// AllStatuses returns every valid status value in declaration order.
func AllStatuses() []BookStatus {
	return []BookStatus{StatusWishlist, StatusReading, StatusCompleted, StatusOnHold, StatusDNF}
}

// ParseStatus validates a stored status string into the enumeration.
func ParseStatus(raw string) (BookStatus, error) {
	switch raw {
	case "wishlist":
		return StatusWishlist, nil
	case "reading":
		return StatusReading, nil
	case "completed":
		return StatusCompleted, nil
	case "on_hold":
		return StatusOnHold, nil
	case "dnf":
		return StatusDNF, nil
	default:
		return 0, fmt.Errorf("unknown book status %q", raw)
	}
}

// UnreadStatusStrings returns the stored string forms of the unread statuses.
func UnreadStatusStrings() []string {
	return []string{StatusWishlist.String(), StatusOnHold.String()}
}
