package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Belphemur/MovieBoxLookup/internal/apperrors"
	"github.com/Belphemur/MovieBoxLookup/internal/browser"
	"github.com/Belphemur/MovieBoxLookup/internal/client"
	"github.com/Belphemur/MovieBoxLookup/internal/config"
	"github.com/Belphemur/MovieBoxLookup/internal/metrics"
	"github.com/Belphemur/MovieBoxLookup/internal/models"
	"github.com/Belphemur/MovieBoxLookup/internal/parser"
)

// searchResultPath is the site page listing hits for a keyword
const searchResultPath = "/web/searchResult"

// DefaultMovieLookup implements MovieLookup by driving a fresh browser session
// per lookup and then querying the download API.
type DefaultMovieLookup struct {
	launcher       browser.Launcher
	client         client.Client
	siteURL        string
	mode           string
	inputSelector  string
	resultSelector string
	logger         zerolog.Logger
}

// NewMovieLookup creates a lookup service. Nothing is cached between lookups.
func NewMovieLookup(cfg *config.Config, launcher browser.Launcher, apiClient client.Client, logger zerolog.Logger) MovieLookup {
	mode := cfg.Search.Mode
	if mode != config.SearchModeURL {
		mode = config.SearchModeForm
	}
	return &DefaultMovieLookup{
		launcher:       launcher,
		client:         apiClient,
		siteURL:        strings.TrimRight(cfg.Site.URL, "/"),
		mode:           mode,
		inputSelector:  cfg.Search.InputSelector,
		resultSelector: cfg.Search.ResultSelector,
		logger:         logger.With().Str("component", "lookup").Logger(),
	}
}

// Lookup runs the search, opens the first hit, and returns its download
// metadata filtered to English captions.
func (s *DefaultMovieLookup) Lookup(ctx context.Context, req models.LookupRequest) (*models.DownloadMetadata, error) {
	start := time.Now()
	logger := s.loggerFor(ctx).With().Str("title", req.Title).Logger()

	meta, err := s.lookup(ctx, req, logger)

	status := lookupStatus(err)
	metrics.LookupsTotal.WithLabelValues(status).Inc()
	metrics.LookupDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Warn().Err(err).Str("status", status).Dur("elapsed", time.Since(start)).Msg("Lookup failed")
		return nil, err
	}
	logger.Info().Dur("elapsed", time.Since(start)).Msg("Lookup completed")
	return meta, nil
}

func (s *DefaultMovieLookup) lookup(ctx context.Context, req models.LookupRequest, logger zerolog.Logger) (*models.DownloadMetadata, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperrors.ErrMissingTitle
	}

	session, err := s.launcher.Launch(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &apperrors.ErrBrowserUnavailable{Op: "launch", Err: err}
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("Failed to close browser session")
		}
	}()

	if err := s.search(ctx, session, req.Title, logger); err != nil {
		return nil, err
	}

	if err := s.openFirstResult(ctx, session, logger); err != nil {
		return nil, err
	}

	detailURL := session.URL()
	subjectID, err := parser.ExtractSubjectID(detailURL)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("url", detailURL).Str("subjectID", subjectID.String()).Msg("Resolved subject ID")

	meta, err := s.client.GetDownloadMetadata(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	langs, err := meta.CaptionLanguages()
	if err != nil {
		return nil, err
	}

	kept, total, err := meta.FilterCaptions(models.EnglishLanguage)
	if err != nil {
		return nil, err
	}
	metrics.CaptionsReturned.Observe(float64(kept))
	logger.Debug().Strs("languages", langs).Int("kept", kept).Int("total", total).Msg("Filtered captions")
	if kept == 0 && total > 0 {
		logger.Info().Strs("languages", langs).Msg("No English captions available")
	}

	return meta, nil
}

// search gets the browser onto the result page for title
func (s *DefaultMovieLookup) search(ctx context.Context, session browser.Session, title string, logger zerolog.Logger) error {
	if s.mode == config.SearchModeURL {
		target := s.searchResultURL(title)
		logger.Debug().Str("url", target).Msg("Opening search result page")
		if err := session.Navigate(ctx, target); err != nil {
			return s.navigationError(ctx, err)
		}
		return nil
	}

	logger.Debug().Str("url", s.siteURL).Msg("Opening site")
	if err := session.Navigate(ctx, s.siteURL); err != nil {
		return s.navigationError(ctx, err)
	}

	if err := session.WaitVisible(ctx, s.inputSelector); err != nil {
		return s.interactionError(ctx, session, s.inputSelector, "search", err)
	}
	if err := session.Fill(ctx, s.inputSelector, title); err != nil {
		return s.interactionError(ctx, session, s.inputSelector, "search", err)
	}
	if err := session.Press(ctx, s.inputSelector, "Enter"); err != nil {
		return s.interactionError(ctx, session, s.inputSelector, "search", err)
	}
	return nil
}

// openFirstResult clicks the first result card and waits for the detail page.
// A URL that never changes is left for subject ID extraction to reject.
func (s *DefaultMovieLookup) openFirstResult(ctx context.Context, session browser.Session, logger zerolog.Logger) error {
	if err := session.WaitVisible(ctx, s.resultSelector); err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			s.logDiagnostics(session, logger)
		}
		return s.interactionError(ctx, session, s.resultSelector, "open result", err)
	}

	searchURL := session.URL()
	if err := session.Click(ctx, s.resultSelector); err != nil {
		return s.interactionError(ctx, session, s.resultSelector, "open result", err)
	}

	if err := session.WaitForURLChange(ctx, searchURL); err != nil {
		if !errors.Is(err, browser.ErrTimeout) {
			return s.interactionError(ctx, session, s.resultSelector, "open result", err)
		}
		logger.Debug().Str("url", searchURL).Msg("Page URL did not change after clicking result")
	}
	return nil
}

func (s *DefaultMovieLookup) searchResultURL(title string) string {
	query := url.Values{}
	query.Set("keyword", title)
	// the site does not decode '+' as a space
	return s.siteURL + searchResultPath + "?" + strings.ReplaceAll(query.Encode(), "+", "%20")
}

func (s *DefaultMovieLookup) navigationError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &apperrors.ErrBrowserUnavailable{Op: "navigate", Err: err}
}

// interactionError maps a failed wait or page action: timeouts mean the
// element is not there, anything else means the browser itself failed.
func (s *DefaultMovieLookup) interactionError(ctx context.Context, session browser.Session, selector, op string, err error) error {
	if errors.Is(err, browser.ErrTimeout) {
		return apperrors.NewElementNotFoundError(selector, session.URL())
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &apperrors.ErrBrowserUnavailable{Op: op, Err: err}
}

func (s *DefaultMovieLookup) logDiagnostics(session browser.Session, logger zerolog.Logger) {
	html, err := session.Content()
	if err != nil {
		logger.Debug().Err(err).Msg("Could not read page content for diagnostics")
		return
	}
	diag, err := parser.NewPageDiagnosticsParser(s.resultSelector).ParseHtml(strings.NewReader(html))
	if err != nil {
		logger.Debug().Err(err).Msg("Could not parse page content for diagnostics")
		return
	}
	logger.Info().
		Str("url", session.URL()).
		Str("pageTitle", diag.Title).
		Int("matches", diag.SelectorCount).
		Bool("emptyResult", diag.EmptyResult).
		Str("message", diag.Message).
		Msg("No search result card found")
}

// loggerFor prefers the request-scoped logger carried by ctx
func (s *DefaultMovieLookup) loggerFor(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l.With().Str("component", "lookup").Logger()
	}
	return s.logger
}

// lookupStatus labels a lookup outcome for metrics
func lookupStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperrors.ErrMissingTitle):
		return "invalid"
	case errors.Is(err, &apperrors.ErrElementNotFound{}):
		return "not_found"
	case errors.Is(err, &apperrors.ErrBrowserUnavailable{}):
		return "browser_error"
	case errors.Is(err, &apperrors.ErrExtraction{}):
		return "extraction_error"
	case errors.Is(err, &apperrors.ErrDownstream{}):
		return "downstream_error"
	case errors.Is(err, &apperrors.ErrMalformedResponse{}):
		return "malformed"
	default:
		return "error"
	}
}
