// Package camara talks to the Chamber of Deputies open-data API and
// collects the per-year dataset the consolidation pipeline reads.
package camara

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the public endpoint of the chamber's open-data API.
const DefaultBaseURL = "https://dadosabertos.camara.leg.br/api/v2"

// Defaults mirror the limits the API tolerates in practice.
const (
	DefaultPageSize     = 100
	DefaultRequestPause = 500 * time.Millisecond
	DefaultRetryWait    = 10 * time.Second
	DefaultMaxAttempts  = 5
	DefaultTimeout      = 30 * time.Second
	DefaultUserAgent    = "plenario/1.0"
)

// ErrNotFound reports a resource the API no longer serves. Callers treat
// it as absence, not failure.
var ErrNotFound = errors.New("resource not found")

// ClientConfig controls API access.
type ClientConfig struct {
	BaseURL      string
	UserAgent    string
	PageSize     int
	RequestPause time.Duration
	RetryWait    time.Duration
	MaxAttempts  int
	Timeout      time.Duration

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client fetches from the chamber API with rate limiting between requests
// and escalating retries on 429 and server errors.
type Client struct {
	baseURL     string
	userAgent   string
	pageSize    int
	pause       time.Duration
	retryWait   time.Duration
	maxAttempts int
	httpClient  *http.Client
	logger      *zap.Logger
	metrics     *Metrics

	requestMu   sync.Mutex
	lastRequest time.Time
}

// NewClient creates a Client with the given config. A nil logger disables
// diagnostics and a nil metrics set disables instrumentation.
func NewClient(config ClientConfig, logger *zap.Logger, metrics *Metrics) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}
	if config.RequestPause <= 0 {
		config.RequestPause = DefaultRequestPause
	}
	if config.RetryWait <= 0 {
		config.RetryWait = DefaultRetryWait
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		baseURL:     config.BaseURL,
		userAgent:   config.UserAgent,
		pageSize:    config.PageSize,
		pause:       config.RequestPause,
		retryWait:   config.RetryWait,
		maxAttempts: config.MaxAttempts,
		httpClient:  httpClient,
		logger:      logger,
		metrics:     metrics,
	}
}

type link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type listEnvelope struct {
	Dados []json.RawMessage `json:"dados"`
	Links []link            `json:"links"`
}

type itemEnvelope struct {
	Dados json.RawMessage `json:"dados"`
}

// ListRollCalls fetches every roll call of one year. The API rejects long
// date windows, so the year is walked month by month, page by page, until
// a month serves an empty page.
func (client *Client) ListRollCalls(ctx context.Context, year int) ([]json.RawMessage, error) {
	var items []json.RawMessage
	for month := time.January; month <= time.December; month++ {
		firstDay := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		lastDay := firstDay.AddDate(0, 1, -1)

		for page := 1; ; page++ {
			query := url.Values{}
			query.Set("dataInicio", firstDay.Format("2006-01-02"))
			query.Set("dataFim", lastDay.Format("2006-01-02"))
			query.Set("itens", strconv.Itoa(client.pageSize))
			query.Set("pagina", strconv.Itoa(page))

			var envelope listEnvelope
			requestURL := fmt.Sprintf("%s/votacoes?%s", client.baseURL, query.Encode())
			if err := client.getJSON(ctx, requestURL, &envelope); err != nil {
				return nil, fmt.Errorf("failed to list roll calls for %d-%02d page %d: %w", year, int(month), page, err)
			}
			client.countPage(len(envelope.Dados))
			if len(envelope.Dados) == 0 {
				break
			}
			items = append(items, envelope.Dados...)
		}
	}
	return items, nil
}

// RollCallDetail fetches the expanded record of one roll call.
func (client *Client) RollCallDetail(ctx context.Context, id string) (json.RawMessage, error) {
	var envelope itemEnvelope
	requestURL := fmt.Sprintf("%s/votacoes/%s", client.baseURL, url.PathEscape(id))
	if err := client.getJSON(ctx, requestURL, &envelope); err != nil {
		return nil, err
	}
	return envelope.Dados, nil
}

// RollCallVotes fetches the individual votes of one roll call.
func (client *Client) RollCallVotes(ctx context.Context, id string) ([]json.RawMessage, error) {
	requestURL := fmt.Sprintf("%s/votacoes/%s/votos", client.baseURL, url.PathEscape(id))
	return client.fetchAllPages(ctx, requestURL)
}

// RollCallOrientations fetches the party orientations of one roll call.
func (client *Client) RollCallOrientations(ctx context.Context, id string) ([]json.RawMessage, error) {
	requestURL := fmt.Sprintf("%s/votacoes/%s/orientacoes", client.baseURL, url.PathEscape(id))
	return client.fetchAllPages(ctx, requestURL)
}

// PropositionSubjects fetches the themes assigned to one proposition.
func (client *Client) PropositionSubjects(ctx context.Context, id string) ([]json.RawMessage, error) {
	requestURL := fmt.Sprintf("%s/proposicoes/%s/temas", client.baseURL, url.PathEscape(id))
	return client.fetchAllPages(ctx, requestURL)
}

// Proposition fetches the basic record of one proposition.
func (client *Client) Proposition(ctx context.Context, id string) (json.RawMessage, error) {
	var envelope itemEnvelope
	requestURL := fmt.Sprintf("%s/proposicoes/%s", client.baseURL, url.PathEscape(id))
	if err := client.getJSON(ctx, requestURL, &envelope); err != nil {
		return nil, err
	}
	return envelope.Dados, nil
}

// fetchAllPages accumulates dados across pages, following rel=next links.
func (client *Client) fetchAllPages(ctx context.Context, requestURL string) ([]json.RawMessage, error) {
	var items []json.RawMessage
	for requestURL != "" {
		var envelope listEnvelope
		if err := client.getJSON(ctx, requestURL, &envelope); err != nil {
			return nil, err
		}
		items = append(items, envelope.Dados...)
		client.countPage(len(envelope.Dados))
		requestURL = nextLink(envelope.Links)
	}
	return items, nil
}

func nextLink(links []link) string {
	for _, l := range links {
		if l.Rel == "next" {
			return l.Href
		}
	}
	return ""
}

// getJSON performs one GET with rate limiting and retries. 429 and 5xx
// responses and transport errors are retried with an escalating wait;
// other 4xx responses fail immediately, 404 as ErrNotFound.
func (client *Client) getJSON(ctx context.Context, requestURL string, out any) error {
	var lastErr error
	for attempt := 1; attempt <= client.maxAttempts; attempt++ {
		if attempt > 1 {
			wait := client.retryWait * time.Duration(attempt-1)
			client.logger.Debug("retrying request",
				zap.String("url", requestURL),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait))
			if client.metrics != nil {
				client.metrics.Retries.Inc()
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		client.waitTurn()

		request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		request.Header.Set("Accept", "application/json")
		request.Header.Set("User-Agent", client.userAgent)

		if client.metrics != nil {
			client.metrics.Requests.Inc()
		}
		response, err := client.httpClient.Do(request)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(response.Body)
		response.Body.Close()

		switch {
		case response.StatusCode == http.StatusOK:
			if readErr != nil {
				lastErr = readErr
				continue
			}
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to decode %s: %w", requestURL, err)
			}
			return nil
		case response.StatusCode == http.StatusNotFound:
			if client.metrics != nil {
				client.metrics.NotFound.Inc()
			}
			return ErrNotFound
		case response.StatusCode == http.StatusTooManyRequests || response.StatusCode >= 500:
			lastErr = fmt.Errorf("HTTP %d for %s", response.StatusCode, requestURL)
			continue
		default:
			return fmt.Errorf("HTTP %d for %s", response.StatusCode, requestURL)
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", client.maxAttempts, lastErr)
}

// waitTurn enforces the pause between consecutive requests.
func (client *Client) waitTurn() {
	client.requestMu.Lock()

	if !client.lastRequest.IsZero() {
		elapsed := time.Since(client.lastRequest)
		if elapsed < client.pause {
			waitDuration := client.pause - elapsed
			client.requestMu.Unlock()
			time.Sleep(waitDuration)
			client.requestMu.Lock()
		}
	}

	client.lastRequest = time.Now()
	client.requestMu.Unlock()
}

// countPage records one fetched list page and its record count.
func (client *Client) countPage(records int) {
	if client.metrics == nil {
		return
	}
	client.metrics.Pages.Inc()
	if records > 0 {
		client.metrics.Records.Add(float64(records))
	}
}
