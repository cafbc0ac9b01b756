package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingTitle is returned when a lookup is requested without a movie title.
var ErrMissingTitle = errors.New("missing movie name")

// ErrElementNotFound represents a page element that could not be located,
// typically a search with no results or a change in the site's markup.
type ErrElementNotFound struct {
	Selector string
	PageURL  string
}

// Error implements the error interface.
func (e *ErrElementNotFound) Error() string {
	if e.PageURL != "" {
		return fmt.Sprintf("element %q not found on %s", e.Selector, e.PageURL)
	}
	return fmt.Sprintf("element %q not found", e.Selector)
}

// Is allows for error checking with errors.Is().
func (e *ErrElementNotFound) Is(target error) bool {
	_, ok := target.(*ErrElementNotFound)
	return ok
}

// NewElementNotFoundError creates a new ErrElementNotFound.
func NewElementNotFoundError(selector, pageURL string) *ErrElementNotFound {
	return &ErrElementNotFound{Selector: selector, PageURL: pageURL}
}

// ErrExtraction is returned when the subject ID cannot be recovered from a page URL.
type ErrExtraction struct {
	URL string
}

// Error implements the error interface.
func (e *ErrExtraction) Error() string {
	return fmt.Sprintf("could not extract subjectId from URL: %s", e.URL)
}

// Is allows for error checking with errors.Is().
func (e *ErrExtraction) Is(target error) bool {
	_, ok := target.(*ErrExtraction)
	return ok
}

// ErrBrowserUnavailable wraps failures to start the browser or load the site.
type ErrBrowserUnavailable struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ErrBrowserUnavailable) Error() string {
	return fmt.Sprintf("browser %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ErrBrowserUnavailable) Unwrap() error { return e.Err }

// Is allows for error checking with errors.Is().
func (e *ErrBrowserUnavailable) Is(target error) bool {
	_, ok := target.(*ErrBrowserUnavailable)
	return ok
}

// ErrDownstream is returned when the download API is unreachable, answers
// with a non-success status or returns a body that is not JSON.
type ErrDownstream struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

// Error implements the error interface.
func (e *ErrDownstream) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download API %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download API %s failed: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *ErrDownstream) Unwrap() error { return e.Err }

// Is allows for error checking with errors.Is().
func (e *ErrDownstream) Is(target error) bool {
	_, ok := target.(*ErrDownstream)
	return ok
}

// ErrMalformedResponse is returned when the download API's JSON lacks the expected shape.
type ErrMalformedResponse struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ErrMalformedResponse) Error() string {
	return fmt.Sprintf("malformed download response: %s %s", e.Field, e.Reason)
}

// Is allows for error checking with errors.Is().
func (e *ErrMalformedResponse) Is(target error) bool {
	_, ok := target.(*ErrMalformedResponse)
	return ok
}

// HTTPStatus maps an error from the lookup pipeline to the status code the
// HTTP layer answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingTitle):
		return http.StatusBadRequest
	case errors.Is(err, &ErrElementNotFound{}):
		return http.StatusNotFound
	case errors.Is(err, &ErrBrowserUnavailable{}):
		return http.StatusServiceUnavailable
	case errors.Is(err, &ErrExtraction{}),
		errors.Is(err, &ErrDownstream{}),
		errors.Is(err, &ErrMalformedResponse{}):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
