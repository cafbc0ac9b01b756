package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"

	"github.com/Belphemur/MovieBoxLookup/internal/apperrors"
	"github.com/Belphemur/MovieBoxLookup/internal/models"
	"github.com/Belphemur/MovieBoxLookup/internal/services"
)

// ErrorReporter receives lookup failures that map to a 5xx status
type ErrorReporter func(r *http.Request, err error)

// LookupHandler serves movie lookups over HTTP
type LookupHandler struct {
	lookup            services.MovieLookup
	legacyErrorStatus bool
	report            ErrorReporter
}

// NewLookupHandler creates a handler around a lookup service. A nil reporter
// sends server-side failures to Sentry.
func NewLookupHandler(lookup services.MovieLookup, legacyErrorStatus bool, report ErrorReporter) *LookupHandler {
	if report == nil {
		report = reportToSentry
	}
	return &LookupHandler{
		lookup:            lookup,
		legacyErrorStatus: legacyErrorStatus,
		report:            report,
	}
}

// Download handles GET /download?movie=<title>
func (h *LookupHandler) Download(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	req, err := models.NewLookupRequest(r.URL.Query().Get("movie"))
	if err != nil {
		writeJSONError(w, missingTitleMessage, http.StatusBadRequest)
		return
	}

	meta, err := h.lookup.Lookup(r.Context(), req)
	if err != nil {
		status := apperrors.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Int("status", status).Msg("Lookup failed")
			h.report(r, err)
		}
		if errors.Is(err, apperrors.ErrMissingTitle) {
			writeJSONError(w, missingTitleMessage, status)
			return
		}
		if h.legacyErrorStatus {
			status = http.StatusOK
		}
		writeJSONError(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, meta)
}

// Health handles GET /healthz
func (h *LookupHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func reportToSentry(r *http.Request, err error) {
	hub := sentry.GetHubFromContext(r.Context())
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(r)
		scope.SetTag("request_id", RequestID(r.Context()))
		scope.SetTag("http_status", strconv.Itoa(apperrors.HTTPStatus(err)))
		hub.CaptureException(err)
	})
}
