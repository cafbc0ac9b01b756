package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog"

	"github.com/Belphemur/MovieBoxLookup/internal/apperrors"
	"github.com/Belphemur/MovieBoxLookup/internal/config"
	"github.com/Belphemur/MovieBoxLookup/internal/models"
)

// maxResponseSize caps how much of a download API body is read
const maxResponseSize = 10 << 20

// ErrResponseTooLarge is wrapped in the ErrDownstream returned for bodies over maxResponseSize
var ErrResponseTooLarge = errors.New("response too large")

// Client defines the interface for querying the MovieBox download API
type Client interface {
	// GetDownloadMetadata fetches the download document of a subject.
	// Failures are reported as *apperrors.ErrDownstream.
	GetDownloadMetadata(ctx context.Context, subjectID models.SubjectID) (*models.DownloadMetadata, error)
}

// client implements the Client interface
type client struct {
	httpClient  *http.Client
	apiURL      string
	referer     string
	userAgent   string
	maxBodySize int64
	retryPolicy retrypolicy.RetryPolicy[[]byte]
	logger      zerolog.Logger
}

// NewClient creates a new client instance with proxy configuration if provided
func NewClient(cfg *config.Config, logger zerolog.Logger) Client {
	logger = logger.With().Str("component", "client").Logger()

	timeout, ok := config.ParseDuration(cfg.ClientTimeout, 30*time.Second)
	if !ok {
		logger.Warn().Str("timeout", cfg.ClientTimeout).Msg("Invalid timeout duration, using default 30s")
	}

	// Clone DefaultTransport to preserve all its settings (timeouts, connection pooling, HTTP/2, etc.)
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyConnectionString != "" {
		proxyURL, err := url.Parse(cfg.ProxyConnectionString)
		if err != nil {
			// Log error but continue without proxy
			logger.Warn().Err(err).Str("proxy", cfg.ProxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			baseTransport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: newCompressionTransport(baseTransport),
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}

	return &client{
		httpClient:  httpClient,
		apiURL:      cfg.Site.APIURL,
		referer:     cfg.Site.URL,
		userAgent:   userAgent,
		maxBodySize: maxResponseSize,
		retryPolicy: newRetryPolicy(cfg, logger),
		logger:      logger,
	}
}

// newRetryPolicy builds the retry policy for download API calls.
// client.retries defaults to 0: a single attempt.
func newRetryPolicy(cfg *config.Config, logger zerolog.Logger) retrypolicy.RetryPolicy[[]byte] {
	retries := cfg.Client.Retries
	if retries < 0 {
		retries = 0
	}
	delay, ok := config.ParseDuration(cfg.Client.RetryDelay, time.Second)
	if !ok {
		logger.Warn().Str("retry_delay", cfg.Client.RetryDelay).Msg("Invalid retry delay, using default 1s")
	}

	return retrypolicy.NewBuilder[[]byte]().
		HandleIf(func(_ []byte, err error) bool {
			return isRetryable(err)
		}).
		WithMaxRetries(retries).
		WithBackoff(delay, 10*delay).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[[]byte]) {
			logger.Warn().
				Err(e.LastError()).
				Int("attempt", e.Attempts()).
				Msg("Retrying download API request")
		}).
		Build()
}

// isRetryable reports whether a download API failure may succeed on a new
// attempt: transport errors, throttling and server errors.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrResponseTooLarge) {
		return false
	}
	var downstream *apperrors.ErrDownstream
	if !errors.As(err, &downstream) {
		return false
	}
	switch {
	case downstream.StatusCode == 0:
		return downstream.Err != nil
	case downstream.StatusCode == http.StatusTooManyRequests:
		return true
	default:
		return downstream.StatusCode >= 500
	}
}
