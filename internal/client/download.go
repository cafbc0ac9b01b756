package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/failsafe-go/failsafe-go"

	"github.com/Belphemur/MovieBoxLookup/internal/apperrors"
	"github.com/Belphemur/MovieBoxLookup/internal/metrics"
	"github.com/Belphemur/MovieBoxLookup/internal/models"
	"github.com/Belphemur/MovieBoxLookup/internal/parser"
)

// GetDownloadMetadata fetches the download document of a movie. Movies have
// no seasons or episodes, so se and ep are always 0.
func (c *client) GetDownloadMetadata(ctx context.Context, subjectID models.SubjectID) (*models.DownloadMetadata, error) {
	endpoint, err := c.buildDownloadURL(subjectID)
	if err != nil {
		return nil, err
	}

	c.logger.Info().Str("subjectID", subjectID.String()).Str("url", endpoint).Msg("Fetching download metadata")

	body, err := failsafe.With[[]byte](c.retryPolicy).WithContext(ctx).Get(func() ([]byte, error) {
		return c.fetch(ctx, endpoint)
	})
	if err != nil {
		metrics.DownstreamRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	meta, err := models.ParseDownloadMetadata(body)
	if err != nil {
		metrics.DownstreamRequestsTotal.WithLabelValues("invalid_json").Inc()
		return nil, &apperrors.ErrDownstream{URL: endpoint, Err: err}
	}

	metrics.DownstreamRequestsTotal.WithLabelValues("success").Inc()
	c.logger.Debug().Str("subjectID", subjectID.String()).Int("size", len(body)).Msg("Download metadata received")

	return meta, nil
}

func (c *client) buildDownloadURL(subjectID models.SubjectID) (string, error) {
	apiURL, err := url.Parse(c.apiURL)
	if err != nil || apiURL.Scheme == "" || apiURL.Host == "" {
		return "", fmt.Errorf("invalid download API URL %q", c.apiURL)
	}

	query := apiURL.Query()
	query.Set("subjectId", subjectID.String())
	query.Set("se", "0")
	query.Set("ep", "0")
	apiURL.RawQuery = query.Encode()

	return apiURL.String(), nil
}

// fetch performs a single GET and returns the UTF-8 body.
func (c *client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.referer != "" {
		req.Header.Set("Referer", strings.TrimRight(c.referer, "/")+"/")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.ErrDownstream{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apperrors.ErrDownstream{URL: endpoint, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, &apperrors.ErrDownstream{URL: endpoint, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if int64(len(raw)) > c.maxBodySize {
		return nil, &apperrors.ErrDownstream{URL: endpoint, Err: fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, c.maxBodySize)}
	}

	reader, err := parser.NewUTF8Reader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &apperrors.ErrDownstream{URL: endpoint, Err: fmt.Errorf("failed to decode charset: %w", err)}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &apperrors.ErrDownstream{URL: endpoint, Err: fmt.Errorf("failed to decode response body: %w", err)}
	}

	return body, nil
}
