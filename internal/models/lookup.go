package models

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Belphemur/MovieBoxLookup/internal/apperrors"
)

// LookupRequest represents a request to find the download metadata of a movie
type LookupRequest struct {
	Title string // Movie title typed into the site's search box
}

// NewLookupRequest validates and normalises a raw title.
// Surrounding whitespace is dropped and the title is converted to NFC so that
// decomposed input (e.g. from macOS clients) searches the same as composed input.
func NewLookupRequest(title string) (LookupRequest, error) {
	title = norm.NFC.String(strings.TrimSpace(title))
	if title == "" {
		return LookupRequest{}, apperrors.ErrMissingTitle
	}
	return LookupRequest{Title: title}, nil
}

// SubjectID identifies a movie within the site's own catalogue
type SubjectID string

func (s SubjectID) String() string {
	return string(s)
}
