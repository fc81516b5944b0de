package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coinpulse/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"https passes through", "https://example.com/a?b=c", "https://example.com/a?b=c"},
		{"http passes through", "http://example.com/", "http://example.com/"},
		{"javascript scheme rejected", "javascript:alert(1)", safeDefaultURL},
		{"data scheme rejected", "data:text/html,hi", safeDefaultURL},
		{"malformed rejected", "http://[::1]:namedport", safeDefaultURL},
		{"relative rejected", "foo/bar", safeDefaultURL},
		{"empty rejected", "", safeDefaultURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeURL(tt.in))
		})
	}
}

func newNewsFixture(t *testing.T, apiKey string) (*NewsService, *upstreamState, *testClock) {
	t.Helper()

	state := &upstreamState{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state.calls++
		if state.fail {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"results":[
			{"title":"BTC climbs","url":"https://news.example.com/btc","source":{"title":"Example"},"published_at":"2026-08-01T10:00:00Z"},
			{"title":"ETH update","url":"javascript:alert(1)","source":{"title":"Example"},"published_at":"2026-08-01T09:00:00Z"},
			{"url":"https://news.example.com/unnamed","source":{},"created_at":"2026-08-01T08:00:00Z"},
			{"title":"SOL news","url":"https://news.example.com/sol","source":{"title":"Example"},"published_at":"2026-08-01T07:00:00Z"},
			{"title":"Fifth item","url":"https://news.example.com/5","source":{"title":"Example"},"published_at":"2026-08-01T06:00:00Z"},
			{"title":"Sixth item","url":"https://news.example.com/6","source":{"title":"Example"},"published_at":"2026-08-01T05:00:00Z"}
		]}`)
	}))
	t.Cleanup(srv.Close)

	clock := newTestClock()
	svc := NewNewsService(cache.NewMemoryStore(), apiKey, 5*time.Minute, 5*time.Second)
	svc.SetBaseURL(srv.URL)
	svc.SetClock(clock.Now)
	return svc, state, clock
}

func TestGetNewsTruncatesAndSanitizes(t *testing.T) {
	svc, _, _ := newNewsFixture(t, "key")

	resp := svc.GetNews(context.Background())
	assert.Equal(t, "cryptopanic", resp.Source)
	require.Len(t, resp.Items, 4)

	assert.Equal(t, "BTC climbs", resp.Items[0].Title)
	assert.Equal(t, "https://news.example.com/btc", resp.Items[0].URL)

	// javascript: URL replaced with the canonical safe default.
	assert.Equal(t, safeDefaultURL, resp.Items[1].URL)

	// Missing title/source fall back to placeholders, created_at backfills.
	assert.Equal(t, "Untitled", resp.Items[2].Title)
	assert.Equal(t, "CryptoPanic", resp.Items[2].Source)
	assert.Equal(t, "2026-08-01T08:00:00Z", resp.Items[2].PublishedAt)
}

func TestGetNewsCachedWithinTTL(t *testing.T) {
	svc, state, _ := newNewsFixture(t, "key")

	first := svc.GetNews(context.Background())
	second := svc.GetNews(context.Background())

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
	assert.Equal(t, 1, state.calls)
}

func TestGetNewsMissingKeyUsesFallback(t *testing.T) {
	svc, state, _ := newNewsFixture(t, "")

	resp := svc.GetNews(context.Background())
	assert.Equal(t, "fallback", resp.Source)
	require.Len(t, resp.Items, 4)
	assert.Equal(t, 0, state.calls)
	for _, item := range resp.Items {
		assert.Equal(t, item.URL, SafeURL(item.URL))
	}
}

func TestGetNewsServesStaleOnUpstreamError(t *testing.T) {
	svc, state, clock := newNewsFixture(t, "key")

	first := svc.GetNews(context.Background())

	clock.Advance(6 * time.Minute) // past the 5 minute TTL
	state.fail = true

	resp := svc.GetNews(context.Background())
	assert.True(t, resp.Cached)
	assert.Equal(t, "Served from cache due to API error", resp.Note)
	assert.Equal(t, first.Items, resp.Items)
}

func TestGetNewsFallbackWhenNoCache(t *testing.T) {
	svc, state, _ := newNewsFixture(t, "key")
	state.fail = true

	resp := svc.GetNews(context.Background())
	assert.Equal(t, "fallback", resp.Source)
	assert.Equal(t, "Fallback due to server error", resp.Note)
	require.Len(t, resp.Items, 4)
}
