package model

// Price is one quoted asset in a prices response.
type Price struct {
	Symbol       string  `json:"symbol"`
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
	Note         string  `json:"note,omitempty"`
}

// PriceSnapshot is the cacheable payload of a prices fetch. UpdatedAt is kept
// as the RFC3339 string produced at fetch time so cached replies are
// byte-identical to the original response.
type PriceSnapshot struct {
	Prices    []Price `json:"prices"`
	UpdatedAt string  `json:"updatedAt"`
}

// NewsItem is one headline in a news response.
type NewsItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"publishedAt"`
}

// NewsSnapshot is the cacheable payload of a news fetch.
type NewsSnapshot struct {
	Items     []NewsItem `json:"items"`
	Source    string     `json:"source"`
	UpdatedAt string     `json:"updatedAt"`
}

// Meme is one curated meme entry.
type Meme struct {
	Title string `json:"title"`
	Img   string `json:"img"`
}
