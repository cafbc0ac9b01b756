package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Belphemur/MovieBoxLookup/internal/apperrors"
	"github.com/Belphemur/MovieBoxLookup/internal/config"
	"github.com/Belphemur/MovieBoxLookup/internal/metrics"
	"github.com/Belphemur/MovieBoxLookup/internal/models"
	"github.com/Belphemur/MovieBoxLookup/internal/testutil"
)

const testSiteURL = "https://moviebox.ng"

// fakeClient returns a freshly parsed body on every call
type fakeClient struct {
	body string
	err  error

	mu    sync.Mutex
	calls []models.SubjectID
}

func (c *fakeClient) GetDownloadMetadata(_ context.Context, subjectID models.SubjectID) (*models.DownloadMetadata, error) {
	c.mu.Lock()
	c.calls = append(c.calls, subjectID)
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return models.ParseDownloadMetadata([]byte(c.body))
}

func (c *fakeClient) Calls() []models.SubjectID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.SubjectID(nil), c.calls...)
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Site.URL = testSiteURL + "/"
	cfg.Search.Mode = config.SearchModeForm
	cfg.Search.InputSelector = testutil.SearchInputSelector
	cfg.Search.ResultSelector = testutil.ResultCardSelector
	return cfg
}

// workingSession scripts a site where the search finds the title and the
// first card leads to DetailURL.
func workingSession() *testutil.FakeSession {
	s := testutil.NewFakeSession(testutil.SearchInputSelector, testutil.ResultCardSelector)
	s.URLAfterSearch = testSiteURL + "/web/searchResult?keyword=Inception"
	s.URLAfterClick = testutil.DetailURL
	return s
}

func newLookup(cfg *config.Config, launcher *testutil.FakeLauncher, apiClient *fakeClient) MovieLookup {
	return NewMovieLookup(cfg, launcher, apiClient, zerolog.Nop())
}

func captionIDs(t *testing.T, meta *models.DownloadMetadata) []string {
	t.Helper()
	raw, err := json.Marshal(meta)
	require.NoError(t, err)

	var doc struct {
		Data struct {
			Captions []struct {
				ID  string `json:"id"`
				Lan string `json:"lan"`
			} `json:"captions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))

	ids := make([]string, 0, len(doc.Data.Captions))
	for _, c := range doc.Data.Captions {
		assert.Equal(t, "en", c.Lan)
		ids = append(ids, c.ID)
	}
	return ids
}

func getCounterVecValue(cv *prometheus.CounterVec, labels ...string) float64 {
	c, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0
	}
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func TestLookup_Success(t *testing.T) {
	launcher := &testutil.FakeLauncher{NewSession: workingSession}
	apiClient := &fakeClient{body: testutil.DownloadResponseJSON}
	before := getCounterVecValue(metrics.LookupsTotal, "success")

	meta, err := newLookup(newTestConfig(), launcher, apiClient).Lookup(context.Background(), models.LookupRequest{Title: "Inception"})
	require.NoError(t, err)

	assert.Equal(t, []string{"2001", "2004"}, captionIDs(t, meta))
	assert.Equal(t, []models.SubjectID{testutil.DetailSubjectID}, apiClient.Calls())

	sessions := launcher.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, sessions[0].CloseCount())
	assert.Equal(t, "Inception", sessions[0].Filled(testutil.SearchInputSelector))
	assert.Equal(t, []string{
		"navigate " + testSiteURL,
		"wait " + testutil.SearchInputSelector,
		"fill " + testutil.SearchInputSelector + " Inception",
		"press " + testutil.SearchInputSelector + " Enter",
		"wait " + testutil.ResultCardSelector,
		"click " + testutil.ResultCardSelector,
		"wait-url",
	}, sessions[0].Calls())

	assert.Equal(t, before+1, getCounterVecValue(metrics.LookupsTotal, "success"))
}

func TestLookup_LogsCaptionLanguages(t *testing.T) {
	launcher := &testutil.FakeLauncher{NewSession: workingSession}
	apiClient := &fakeClient{body: `{"data":{"captions":[{"id":"1","lan":"fr"},{"id":"2","lan":"es"}]}}`}
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	_, err := NewMovieLookup(newTestConfig(), launcher, apiClient, logger).Lookup(context.Background(), models.LookupRequest{Title: "Inception"})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"languages":["fr","es"]`)
	assert.Contains(t, buf.String(), "No English captions available")
}

func TestLookup_KeepsOtherFieldsUntouched(t *testing.T) {
	launcher := &testutil.FakeLauncher{NewSession: workingSession}
	apiClient := &fakeClient{body: testutil.DownloadResponseJSON}

	meta, err := newLookup(newTestConfig(), launcher, apiClient).Lookup(context.Background(), models.LookupRequest{Title: "Inception"})
	require.NoError(t, err)

	raw, err := json.Marshal(meta)
	require.NoError(t, err)

	var got, want map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	require.NoError(t, json.Unmarshal([]byte(testutil.DownloadResponseJSON), &want))

	gotData := got["data"].(map[string]any)
	wantData := want["data"].(map[string]any)
	assert.Equal(t, want["code"], got["code"])
	assert.Equal(t, want["message"], got["message"])
	assert.Equal(t, wantData["downloads"], gotData["downloads"])
	assert.Equal(t, wantData["hasResource"], gotData["hasResource"])
	assert.Len(t, gotData["captions"], 2)
}

func TestLookup_URLSearchMode(t *testing.T) {
	cfg := newTestConfig()
	cfg.Search.Mode = config.SearchModeURL
	launcher := &testutil.FakeLauncher{NewSession: func() *testutil.FakeSession {
		s := testutil.NewFakeSession(testutil.ResultCardSelector)
		s.URLAfterClick = testutil.DetailURL
		return s
	}}
	apiClient := &fakeClient{body: testutil.DownloadResponseJSON}

	_, err := newLookup(cfg, launcher, apiClient).Lookup(context.Background(), models.LookupRequest{Title: "The Matrix & Co"})
	require.NoError(t, err)

	calls := launcher.Sessions()[0].Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, "navigate "+testSiteURL+"/web/searchResult?keyword=The%20Matrix%20%26%20Co", calls[0])
	for _, call := range calls {
		assert.False(t, strings.HasPrefix(call, "fill"), "url mode must not type into the search box")
	}
}

func TestLookup_EmptyTitleDoesNotLaunchBrowser(t *testing.T) {
	launcher := &testutil.FakeLauncher{NewSession: workingSession}
	apiClient := &fakeClient{body: testutil.DownloadResponseJSON}

	_, err := newLookup(newTestConfig(), launcher, apiClient).Lookup(context.Background(), models.LookupRequest{Title: "   "})

	assert.ErrorIs(t, err, apperrors.ErrMissingTitle)
	assert.Empty(t, launcher.Sessions())
	assert.Empty(t, apiClient.Calls())
}

func TestLookup_NoSearchResults(t *testing.T) {
	launcher := &testutil.FakeLauncher{NewSession: func() *testutil.FakeSession {
		s := testutil.NewFakeSession(testutil.SearchInputSelector)
		s.HTML = testutil.EmptySearchHTML
		return s
	}}
	apiClient := &fakeClient{body: testutil.DownloadResponseJSON}

	_, err := newLookup(newTestConfig(), launcher, apiClient).Lookup(context.Background(), models.LookupRequest{Title: "zzzzqqqq"})

	var notFound *apperrors.ErrElementNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, testutil.ResultCardSelector, notFound.Selector)
	assert.Empty(t, apiClient.Calls())
	assert.Equal(t, 1, launcher.Sessions()[0].CloseCount())
}

func TestLookup_SearchInputMissing(t *testing.T) {
	launcher := &testutil.FakeLauncher{NewSession: func() *testutil.FakeSession {
		return testutil.NewFakeSession()
	}}

	_, err := newLookup(newTestConfig(), launcher, &fakeClient{}).Lookup(context.Background(), models.LookupRequest{Title: "Inception"})

	var notFound *apperrors.ErrElementNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, testutil.SearchInputSelector, notFound.Selector)
	assert.Equal(t, 1, launcher.Sessions()[0].CloseCount())
}

func TestLookup_DetailURLWithoutID(t *testing.T) {
	launcher := &testutil.FakeLauncher{NewSession: func() *testutil.FakeSession {
		s := workingSession()
		s.URLAfterClick = testSiteURL + "/movies/inception-2010"
		return s
	}}
	apiClient := &fakeClient{body: testutil.DownloadResponseJSON}

	_, err := newLookup(newTestConfig(), launcher, apiClient).Lookup(context.Background(), models.LookupRequest{Title: "Inception"})

	assert.ErrorIs(t, err, &apperrors.ErrExtraction{})
	assert.Empty(t, apiClient.Calls())
	assert.Equal(t, 1, launcher.Sessions()[0].CloseCount())
}

func TestLookup_URLNeverChanges(t *testing.T) {
	launcher := &testutil.FakeLauncher{NewSession: func() *testutil.FakeSession {
		s := testutil.NewFakeSession(testutil.SearchInputSelector, testutil.ResultCardSelector)
		s.URLAfterSearch = testSiteURL + "/web/searchResult?keyword=Inception"
		return s
	}}

	_, err := newLookup(newTestConfig(), launcher, &fakeClient{}).Lookup(context.Background(), models.LookupRequest{Title: "Inception"})

	// the search page URL carries no id= marker
	assert.ErrorIs(t, err, &apperrors.ErrExtraction{})
}

func TestLookup_LaunchFailure(t *testing.T) {
	launcher := &testutil.FakeLauncher{LaunchErr: errors.New("chromium not found")}

	_, err := newLookup(newTestConfig(), launcher, &fakeClient{}).Lookup(context.Background(), models.LookupRequest{Title: "Inception"})

	var unavailable *apperrors.ErrBrowserUnavailable
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "launch", unavailable.Op)
}

func TestLookup_NavigationFailure(t *testing.T) {
	launcher := &testutil.FakeLauncher{NewSession: func() *testutil.FakeSession {
		s := workingSession()
		s.NavigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
		return s
	}}

	_, err := newLookup(newTestConfig(), launcher, &fakeClient{}).Lookup(context.Background(), models.LookupRequest{Title: "Inception"})

	var unavailable *apperrors.ErrBrowserUnavailable
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "navigate", unavailable.Op)
	assert.Equal(t, 1, launcher.Sessions()[0].CloseCount())
}

func TestLookup_DownstreamFailure(t *testing.T) {
	launcher := &testutil.FakeLauncher{NewSession: workingSession}
	apiClient := &fakeClient{err: &apperrors.ErrDownstream{URL: "https://moviebox.ng/api", StatusCode: 500}}

	_, err := newLookup(newTestConfig(), launcher, apiClient).Lookup(context.Background(), models.LookupRequest{Title: "Inception"})

	assert.ErrorIs(t, err, &apperrors.ErrDownstream{})
	assert.Equal(t, 1, launcher.Sessions()[0].CloseCount())
}

func TestLookup_MissingCaptions(t *testing.T) {
	launcher := &testutil.FakeLauncher{NewSession: workingSession}
	apiClient := &fakeClient{body: testutil.DownloadResponseWithoutCaptionsJSON}

	_, err := newLookup(newTestConfig(), launcher, apiClient).Lookup(context.Background(), models.LookupRequest{Title: "Inception"})

	var malformed *apperrors.ErrMalformedResponse
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "data.captions", malformed.Field)
}

func TestLookup_NoEnglishCaptions(t *testing.T) {
	launcher := &testutil.FakeLauncher{NewSession: workingSession}
	apiClient := &fakeClient{body: `{"data":{"captions":[{"id":"1","lan":"fr"}]}}`}

	meta, err := newLookup(newTestConfig(), launcher, apiClient).Lookup(context.Background(), models.LookupRequest{Title: "Inception"})
	require.NoError(t, err)

	raw, err := json.Marshal(meta)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"captions":[]}}`, string(raw))
}

func TestLookup_EveryLookupUsesAFreshBrowser(t *testing.T) {
	launcher := &testutil.FakeLauncher{NewSession: workingSession}
	apiClient := &fakeClient{body: testutil.DownloadResponseJSON}
	lookup := newLookup(newTestConfig(), launcher, apiClient)

	for range 2 {
		_, err := lookup.Lookup(context.Background(), models.LookupRequest{Title: "Inception"})
		require.NoError(t, err)
	}

	sessions := launcher.Sessions()
	require.Len(t, sessions, 2)
	assert.NotSame(t, sessions[0], sessions[1])
	for _, s := range sessions {
		assert.Equal(t, 1, s.CloseCount())
	}
	assert.Len(t, apiClient.Calls(), 2)
}

func TestLookup_CanceledContext(t *testing.T) {
	launcher := &testutil.FakeLauncher{NewSession: workingSession}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newLookup(newTestConfig(), launcher, &fakeClient{}).Lookup(ctx, models.LookupRequest{Title: "Inception"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, launcher.Sessions())
}

func TestLookupStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{apperrors.ErrMissingTitle, "invalid"},
		{apperrors.NewElementNotFoundError("div", ""), "not_found"},
		{&apperrors.ErrBrowserUnavailable{Op: "launch"}, "browser_error"},
		{&apperrors.ErrExtraction{URL: "x"}, "extraction_error"},
		{&apperrors.ErrDownstream{StatusCode: 502}, "downstream_error"},
		{&apperrors.ErrMalformedResponse{Field: "data"}, "malformed"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, lookupStatus(tt.err))
	}
}
