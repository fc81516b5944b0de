package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"coinpulse/cache"
	"coinpulse/logger"
	"coinpulse/model"
)

const (
	newsCacheKey = "news:latest"
	newsLimit    = 4

	// Substituted for any item URL that is missing, malformed or uses a
	// non-http(s) scheme.
	safeDefaultURL = "https://cryptopanic.com/"
)

// newsFallback is served when the upstream fails with no cache to lean on.
func newsFallback(now time.Time) []model.NewsItem {
	at := now.UTC().Format(time.RFC3339)
	return []model.NewsItem{
		{Title: "Bitcoin steadies as markets wait for macro signals", URL: "https://www.coindesk.com/", Source: "Fallback", PublishedAt: at},
		{Title: "Ethereum activity rises as L2 adoption grows", URL: "https://cointelegraph.com/", Source: "Fallback", PublishedAt: at},
		{Title: "Altcoins see mixed performance amid low volatility", URL: "https://decrypt.co/", Source: "Fallback", PublishedAt: at},
		{Title: "Crypto market pauses ahead of macro data", URL: "https://www.bloomberg.com/crypto", Source: "Fallback", PublishedAt: at},
	}
}

// NewsResponse is the wire shape of a news reply.
type NewsResponse struct {
	Items     []model.NewsItem `json:"items"`
	Source    string           `json:"source"`
	UpdatedAt string           `json:"updatedAt"`
	Cached    bool             `json:"cached,omitempty"`
	Note      string           `json:"note,omitempty"`
}

// NewsService fetches crypto headlines from CryptoPanic with a TTL cache and
// a static fallback list. There are no query parameters, so the whole feed
// shares one cache entry.
type NewsService struct {
	store   cache.Store
	client  *http.Client
	baseURL string
	apiKey  string
	ttl     time.Duration
	now     func() time.Time
}

// NewNewsService creates a news service on the given cache backend.
func NewNewsService(store cache.Store, apiKey string, ttl, timeout time.Duration) *NewsService {
	return &NewsService{
		store:   store,
		client:  &http.Client{Timeout: timeout},
		baseURL: "https://cryptopanic.com/api/developer/v2",
		apiKey:  apiKey,
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetBaseURL overrides the upstream base URL.
func (s *NewsService) SetBaseURL(url string) {
	s.baseURL = url
}

// SetClock overrides the time source used for cache freshness.
func (s *NewsService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *NewsService) fresh(entry *cache.Entry) bool {
	return entry != nil && s.now().Sub(entry.CachedAt) < s.ttl
}

// GetNews returns the top headlines following the
// cache-then-fetch-then-fallback pattern.
func (s *NewsService) GetNews(ctx context.Context) *NewsResponse {
	entry, err := s.store.Get(ctx, newsCacheKey)
	if err != nil {
		logger.Warn("news cache read failed", logger.ErrorField(err))
		entry = nil
	}

	if s.fresh(entry) {
		var snapshot model.NewsSnapshot
		if err := json.Unmarshal(entry.Payload, &snapshot); err == nil {
			return &NewsResponse{
				Items:     snapshot.Items,
				Source:    snapshot.Source,
				UpdatedAt: snapshot.UpdatedAt,
				Cached:    true,
			}
		}
		logger.Warn("dropping unreadable news cache entry")
		entry = nil
	}

	if s.apiKey == "" {
		return &NewsResponse{
			Items:     newsFallback(s.now()),
			Source:    "fallback",
			UpdatedAt: s.now().UTC().Format(time.RFC3339),
		}
	}

	snapshot, err := s.fetch(ctx)
	if err == nil {
		payload, merr := json.Marshal(snapshot)
		if merr == nil {
			if perr := s.store.Put(ctx, newsCacheKey, payload, s.now()); perr != nil {
				logger.Warn("news cache write failed", logger.ErrorField(perr))
			}
		}
		return &NewsResponse{
			Items:     snapshot.Items,
			Source:    snapshot.Source,
			UpdatedAt: snapshot.UpdatedAt,
		}
	}

	logger.Warn("cryptopanic fetch failed", logger.ErrorField(err))

	if entry != nil {
		var stale model.NewsSnapshot
		if uerr := json.Unmarshal(entry.Payload, &stale); uerr == nil {
			return &NewsResponse{
				Items:     stale.Items,
				Source:    stale.Source,
				UpdatedAt: stale.UpdatedAt,
				Cached:    true,
				Note:      "Served from cache due to API error",
			}
		}
	}

	return &NewsResponse{
		Items:     newsFallback(s.now()),
		Source:    "fallback",
		UpdatedAt: s.now().UTC().Format(time.RFC3339),
		Note:      "Fallback due to server error",
	}
}

// cryptoPanicPost mirrors the subset of the upstream post shape we read.
type cryptoPanicPost struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"source"`
	PublishedAt string `json:"published_at"`
	CreatedAt   string `json:"created_at"`
}

func (s *NewsService) fetch(ctx context.Context) (*model.NewsSnapshot, error) {
	endpoint := fmt.Sprintf("%s/posts/?auth_token=%s&public=true&kind=news&currencies=BTC,ETH",
		s.baseURL, url.QueryEscape(s.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build cryptopanic request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cryptopanic request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cryptopanic response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cryptopanic failed (%d)", resp.StatusCode)
	}

	var data struct {
		Results []cryptoPanicPost `json:"results"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse cryptopanic response: %w", err)
	}

	results := data.Results
	if len(results) > newsLimit {
		results = results[:newsLimit]
	}

	items := make([]model.NewsItem, 0, len(results))
	for _, post := range results {
		title := post.Title
		if title == "" {
			title = "Untitled"
		}
		source := post.Source.Title
		if source == "" {
			source = "CryptoPanic"
		}
		rawURL := post.URL
		if rawURL == "" {
			rawURL = post.Source.URL
		}
		publishedAt := post.PublishedAt
		if publishedAt == "" {
			publishedAt = post.CreatedAt
		}
		items = append(items, model.NewsItem{
			Title:       title,
			URL:         SafeURL(rawURL),
			Source:      source,
			PublishedAt: publishedAt,
		})
	}

	return &model.NewsSnapshot{
		Items:     items,
		Source:    "cryptopanic",
		UpdatedAt: s.now().UTC().Format(time.RFC3339),
	}, nil
}

// SafeURL accepts only absolute http/https URLs, substituting the canonical
// default for anything else. Upstream URLs are untrusted input rendered as
// links by the dashboard.
func SafeURL(maybeURL string) string {
	u, err := url.Parse(maybeURL)
	if err != nil {
		return safeDefaultURL
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return u.String()
	}
	return safeDefaultURL
}
