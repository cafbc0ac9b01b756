package parser

import (
	"net/url"
	"strings"

	"github.com/Belphemur/MovieBoxLookup/internal/apperrors"
	"github.com/Belphemur/MovieBoxLookup/internal/models"
)

// subjectIDMarker precedes the subject ID in detail page URLs
const subjectIDMarker = "id="

// ExtractSubjectID recovers the subject ID from a detail page URL.
// The "id" query parameter is preferred; otherwise the text following the
// last "id=" marker is used, up to the next '&' or '#'.
func ExtractSubjectID(pageURL string) (models.SubjectID, error) {
	if u, err := url.Parse(pageURL); err == nil {
		if id := strings.TrimSpace(u.Query().Get("id")); id != "" {
			return models.SubjectID(id), nil
		}
	}

	idx := strings.LastIndex(pageURL, subjectIDMarker)
	if idx < 0 {
		return "", &apperrors.ErrExtraction{URL: pageURL}
	}

	id := pageURL[idx+len(subjectIDMarker):]
	if end := strings.IndexAny(id, "&#"); end >= 0 {
		id = id[:end]
	}
	if unescaped, err := url.QueryUnescape(id); err == nil {
		id = unescaped
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", &apperrors.ErrExtraction{URL: pageURL}
	}

	return models.SubjectID(id), nil
}
