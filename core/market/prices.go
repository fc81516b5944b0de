package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"coinpulse/cache"
	"coinpulse/logger"
	"coinpulse/model"
)

// coingeckoIDBySymbol is the fixed allow-list of quotable assets. Symbols
// outside this map are dropped from upstream requests without erroring.
var coingeckoIDBySymbol = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"DOGE": "dogecoin",
	"ADA":  "cardano",
	"XRP":  "ripple",
}

// SupportedSymbols lists the quotable symbols in stable order.
func SupportedSymbols() []string {
	symbols := make([]string, 0, len(coingeckoIDBySymbol))
	for s := range coingeckoIDBySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// ErrNoSupportedAssets is returned when every requested symbol is outside
// the allow-list. This is a hard validation error, not a fallback case.
var ErrNoSupportedAssets = errors.New("no supported assets provided")

// PriceResponse is the wire shape of a prices reply. The shape is identical
// on the live, cached and fallback paths; only the tag fields differ.
type PriceResponse struct {
	Prices    []model.Price `json:"prices"`
	UpdatedAt string        `json:"updatedAt"`
	Cached    bool          `json:"cached,omitempty"`
	Source    string        `json:"source,omitempty"`
	Note      string        `json:"note,omitempty"`
}

// PriceService quotes asset prices from CoinGecko with a TTL cache and a
// zero-value fallback.
type PriceService struct {
	store   cache.Store
	client  *http.Client
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

// NewPriceService creates a price service on the given cache backend.
func NewPriceService(store cache.Store, ttl, timeout time.Duration) *PriceService {
	return &PriceService{
		store:   store,
		client:  &http.Client{Timeout: timeout},
		baseURL: "https://api.coingecko.com/api/v3",
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetBaseURL overrides the upstream base URL.
func (s *PriceService) SetBaseURL(url string) {
	s.baseURL = url
}

// SetClock overrides the time source used for cache freshness.
func (s *PriceService) SetClock(now func() time.Time) {
	s.now = now
}

// NormalizeSymbols upper-cases and trims the raw symbol list, dropping blanks.
func NormalizeSymbols(raw []string) []string {
	symbols := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

// cacheKey canonicalizes the symbol set so BTC,ETH and ETH,BTC share an entry.
func cacheKey(symbols []string) string {
	seen := make(map[string]bool, len(symbols))
	uniq := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if !seen[s] {
			seen[s] = true
			uniq = append(uniq, s)
		}
	}
	sort.Strings(uniq)
	return "prices:" + strings.Join(uniq, ",")
}

func (s *PriceService) fresh(entry *cache.Entry) bool {
	return entry != nil && s.now().Sub(entry.CachedAt) < s.ttl
}

// GetPrices returns quotes for the requested symbols following the
// cache-then-fetch-then-fallback pattern.
func (s *PriceService) GetPrices(ctx context.Context, raw []string) (*PriceResponse, error) {
	symbols := NormalizeSymbols(raw)
	key := cacheKey(symbols)

	entry, err := s.store.Get(ctx, key)
	if err != nil {
		logger.Warn("price cache read failed", logger.ErrorField(err), logger.String("key", key))
		entry = nil
	}

	if s.fresh(entry) {
		var snapshot model.PriceSnapshot
		if err := json.Unmarshal(entry.Payload, &snapshot); err == nil {
			return &PriceResponse{
				Prices:    snapshot.Prices,
				UpdatedAt: snapshot.UpdatedAt,
				Cached:    true,
			}, nil
		}
		logger.Warn("dropping unreadable price cache entry", logger.String("key", key))
		entry = nil
	}

	ids := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if id, ok := coingeckoIDBySymbol[sym]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoSupportedAssets
	}

	snapshot, err := s.fetch(ctx, symbols, ids)
	if err == nil {
		payload, merr := json.Marshal(snapshot)
		if merr == nil {
			if perr := s.store.Put(ctx, key, payload, s.now()); perr != nil {
				logger.Warn("price cache write failed", logger.ErrorField(perr), logger.String("key", key))
			}
		}
		return &PriceResponse{Prices: snapshot.Prices, UpdatedAt: snapshot.UpdatedAt}, nil
	}

	logger.Warn("coingecko fetch failed", logger.ErrorField(err))

	// Stale entries are degraded-but-valid data.
	if entry != nil {
		var stale model.PriceSnapshot
		if uerr := json.Unmarshal(entry.Payload, &stale); uerr == nil {
			return &PriceResponse{
				Prices:    stale.Prices,
				UpdatedAt: stale.UpdatedAt,
				Cached:    true,
				Note:      "Served from cache due to CoinGecko error",
			}, nil
		}
	}

	return &PriceResponse{
		Prices:    pricesFallback(symbols),
		UpdatedAt: s.now().UTC().Format(time.RFC3339),
		Source:    "fallback",
		Note:      "Fallback due to CoinGecko error",
	}, nil
}

func (s *PriceService) fetch(ctx context.Context, symbols, ids []string) (*model.PriceSnapshot, error) {
	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true",
		s.baseURL, url.QueryEscape(strings.Join(ids, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build coingecko request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read coingecko response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko failed (%d)", resp.StatusCode)
	}

	var data map[string]struct {
		USD          float64 `json:"usd"`
		USD24hChange float64 `json:"usd_24h_change"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse coingecko response: %w", err)
	}

	prices := make([]model.Price, 0, len(symbols))
	for _, sym := range symbols {
		id, ok := coingeckoIDBySymbol[sym]
		if !ok {
			continue
		}
		quote, ok := data[id]
		if !ok {
			continue
		}
		prices = append(prices, model.Price{
			Symbol:       sym,
			USD:          quote.USD,
			USD24hChange: quote.USD24hChange,
		})
	}

	return &model.PriceSnapshot{
		Prices:    prices,
		UpdatedAt: s.now().UTC().Format(time.RFC3339),
	}, nil
}

// pricesFallback produces zero-value rows for every requested symbol,
// including unsupported ones.
func pricesFallback(symbols []string) []model.Price {
	prices := make([]model.Price, 0, len(symbols))
	for _, sym := range symbols {
		prices = append(prices, model.Price{Symbol: sym, Note: "fallback"})
	}
	return prices
}
