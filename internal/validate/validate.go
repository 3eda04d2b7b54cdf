// Package validate holds the field predicates that gate every payment and
// profile mutation. Predicates are pure: they never panic and never mutate.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/badoux/checkmail"

	"paytrack/internal/core"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 600
	MaxDisplayNameLength = 50
	MinPasswordLength    = 6
	MaxPhotos            = 2
	MaxPhotoBytes        = 5 << 20
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+@([A-Za-z0-9-]+\.)+[A-Za-z]{2,}$`)

// Title is non-empty and shorter than MaxTitleLength characters.
func Title(s string) bool {
	return nonEmptyBelow(s, MaxTitleLength)
}

// Description is non-empty and shorter than MaxDescriptionLength characters.
func Description(s string) bool {
	return nonEmptyBelow(s, MaxDescriptionLength)
}

// Amount reports whether s parses as a non-negative decimal below core.MaxAmount.
func Amount(s string) bool {
	_, err := core.ParseAmount(s)
	return err == nil
}

// PhotoQuantity reports whether adding pending photos to current ones stays
// within MaxPhotos.
func PhotoQuantity(current, pending int) bool {
	if current < 0 || pending < 0 {
		return false
	}
	return current+pending <= MaxPhotos
}

// PhotoSize reports whether an attachment of the given size may be accepted.
func PhotoSize(bytes int64) bool {
	return bytes > 0 && bytes <= MaxPhotoBytes
}

func Email(s string) bool {
	if s == "" || !emailPattern.MatchString(s) {
		return false
	}
	return checkmail.ValidateFormat(s) == nil
}

func DisplayName(s string) bool {
	return nonEmptyBelow(s, MaxDisplayNameLength)
}

func Password(s string) bool {
	return utf8.RuneCountInString(s) >= MinPasswordLength
}

func nonEmptyBelow(s string, max int) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	return utf8.RuneCountInString(s) < max
}
