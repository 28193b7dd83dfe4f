// Package news provides news search tools backed by the NewsData.io API.
// An API key is required, see https://newsdata.io.
package news

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentic/pkg/schema"
	"github.com/effective-security/agentic/tools"
)

const (
	// DefaultBaseURL is the NewsData.io latest-news endpoint.
	DefaultBaseURL = "https://newsdata.io/api/1/news"

	// MaxArticles caps the number of articles returned to the model.
	MaxArticles = 5
)

// validCategories are the categories NewsData.io accepts.
var validCategories = []string{
	"business", "crime", "domestic", "education", "entertainment",
	"environment", "food", "health", "lifestyle", "other", "politics",
	"science", "sports", "technology", "top", "tourism", "world",
}

// Client calls the NewsData.io API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a NewsData.io client. If apiKey is empty, the
// NEWSDATA_API_KEY environment variable is used.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("NEWSDATA_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("news: API key is required, set NEWSDATA_API_KEY")
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Article is a single news item.
type Article struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Source      string `json:"source" yaml:"source"`
	Published   string `json:"published" yaml:"published"`
	Link        string `json:"link" yaml:"link"`
}

type apiResponse struct {
	Status       string `json:"status"`
	TotalResults int    `json:"totalResults"`
	Results      []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		SourceName  string `json:"source_name"`
		SourceID    string `json:"source_id"`
		PubDate     string `json:"pubDate"`
		Link        string `json:"link"`
	} `json:"results"`
}

func (c *Client) fetch(ctx context.Context, q url.Values) ([]Article, int, error) {
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, errors.Newf("news API returned %d: %s", resp.StatusCode, string(body))
	}

	var res apiResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, 0, errors.Wrap(err, "failed to decode news API response")
	}
	if res.Status != "success" {
		return nil, 0, errors.Newf("news API status: %s", res.Status)
	}

	var articles []Article
	for _, r := range res.Results {
		if len(articles) == MaxArticles {
			break
		}
		source := r.SourceName
		if source == "" {
			source = r.SourceID
		}
		articles = append(articles, Article{
			Title:       r.Title,
			Description: r.Description,
			Source:      source,
			Published:   r.PubDate,
			Link:        r.Link,
		})
	}
	return articles, res.TotalResults, nil
}

// SearchRequest represents the news-search tool input.
type SearchRequest struct {
	Query    string `json:"query" yaml:"query" jsonschema:"title=query,description=Keywords to search news articles for."`
	Language string `json:"language,omitempty" yaml:"language,omitempty" jsonschema:"title=language,description=Two-letter language code. Defaults to 'en'."`
}

// SearchResult represents the news-search tool output.
type SearchResult struct {
	TotalResults int       `json:"total_results" yaml:"total_results"`
	Articles     []Article `json:"articles" yaml:"articles"`
}

// SearchTool searches recent news articles by keyword.
type SearchTool struct {
	client *Client
}

var _ tools.Tool[SearchRequest, SearchResult] = (*SearchTool)(nil)

// NewSearch creates the news-search tool.
func NewSearch(client *Client) *SearchTool {
	return &SearchTool{client: client}
}

func (t *SearchTool) Name() string {
	return "search_news"
}

func (t *SearchTool) Description() string {
	return "Searches recent news articles by keyword and returns titles, sources and links."
}

func (t *SearchTool) Schema() *schema.Schema {
	return schema.MustNew(SearchRequest{})
}

func (t *SearchTool) Run(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if req.Query == "" {
		return nil, errors.New("query is required")
	}
	lang := req.Language
	if lang == "" {
		lang = "en"
	}

	q := url.Values{}
	q.Set("q", req.Query)
	q.Set("language", lang)

	articles, total, err := t.client.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	return &SearchResult{
		TotalResults: total,
		Articles:     articles,
	}, nil
}

func (t *SearchTool) Call(ctx context.Context, input string) (string, error) {
	return tools.CallTyped(ctx, t, input)
}

// HeadlinesRequest represents the headlines tool input.
type HeadlinesRequest struct {
	Category string `json:"category,omitempty" yaml:"category,omitempty" jsonschema:"title=category,description=News category such as business politics science sports technology or top."`
	Country  string `json:"country,omitempty" yaml:"country,omitempty" jsonschema:"title=country,description=Two-letter country code. Defaults to 'us'."`
}

// HeadlinesResult represents the headlines tool output.
type HeadlinesResult struct {
	Category string    `json:"category,omitempty" yaml:"category,omitempty"`
	Country  string    `json:"country" yaml:"country"`
	Articles []Article `json:"articles" yaml:"articles"`
}

// HeadlinesTool returns the top headlines for a country and optional category.
type HeadlinesTool struct {
	client *Client
}

var _ tools.Tool[HeadlinesRequest, HeadlinesResult] = (*HeadlinesTool)(nil)

// NewHeadlines creates the headlines tool.
func NewHeadlines(client *Client) *HeadlinesTool {
	return &HeadlinesTool{client: client}
}

func (t *HeadlinesTool) Name() string {
	return "get_headlines"
}

func (t *HeadlinesTool) Description() string {
	return "Returns the current top news headlines for a country, optionally filtered by category."
}

func (t *HeadlinesTool) Schema() *schema.Schema {
	return schema.MustNew(HeadlinesRequest{})
}

func (t *HeadlinesTool) Run(ctx context.Context, req *HeadlinesRequest) (*HeadlinesResult, error) {
	country := req.Country
	if country == "" {
		country = "us"
	}

	q := url.Values{}
	q.Set("country", country)

	category := strings.ToLower(strings.TrimSpace(req.Category))
	if category != "" {
		if !slices.Contains(validCategories, category) {
			return nil, errors.Newf("invalid category %q: valid categories are %s",
				req.Category, strings.Join(validCategories, ", "))
		}
		q.Set("category", category)
	}

	articles, _, err := t.client.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	return &HeadlinesResult{
		Category: category,
		Country:  country,
		Articles: articles,
	}, nil
}

func (t *HeadlinesTool) Call(ctx context.Context, input string) (string, error) {
	return tools.CallTyped(ctx, t, input)
}

// Tools returns the news tools sharing one client.
func Tools(client *Client) []tools.ITool {
	return []tools.ITool{
		NewSearch(client),
		NewHeadlines(client),
	}
}
