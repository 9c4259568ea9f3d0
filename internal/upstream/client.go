package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/zionnet/newsflow/internal/domain"
)

// RawArticle is one item as reported by the content provider. Category tags
// arrive as a list and may contain duplicates.
type RawArticle struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Link        string   `json:"link"`
	Category    []string `json:"category"`
}

// QueryResponse is the provider's envelope for one category query.
type QueryResponse struct {
	Status  string       `json:"status"`
	Results []RawArticle `json:"results"`
}

// Source abstracts the upstream content provider. Mocking this interface in
// tests gives full control over upstream behaviour without real HTTP calls.
type Source interface {
	Query(ctx context.Context, category domain.Category) (*QueryResponse, error)
}

// HTTPSource queries a newsdata-style JSON API. The provider enforces a
// request quota, so every query first waits on a local token-bucket limiter;
// the wait is bounded by the request context.
type HTTPSource struct {
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	httpClient *http.Client
}

func NewHTTPSource(baseURL, apiKey string, ratePerSec int, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Query fetches the latest items for one category.
// A non-200 response is an error; the caller downgrades it to a miss.
func (s *HTTPSource) Query(ctx context.Context, category domain.Category) (*QueryResponse, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	q := url.Values{}
	q.Set("apikey", s.apiKey)
	q.Set("language", "en")
	q.Set("category", string(category))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", category, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected upstream status for %q: %d", category, resp.StatusCode)
	}

	var out QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode upstream response: %w", err)
	}
	return &out, nil
}

var _ Source = (*HTTPSource)(nil)
