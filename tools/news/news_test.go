package news_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/effective-security/agentic/tools/news"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	SourceName  string `json:"source_name"`
	PubDate     string `json:"pubDate"`
	Link        string `json:"link"`
}

func newAPIServer(t *testing.T, count int, capture *map[string]string) *httptest.Server {
	t.Helper()

	faker := gofakeit.New(1)
	articles := make([]fakeArticle, count)
	for i := range articles {
		articles[i] = fakeArticle{
			Title:       faker.Sentence(5),
			Description: faker.Sentence(12),
			SourceName:  faker.Company(),
			PubDate:     "2025-06-15 12:00:00",
			Link:        faker.URL(),
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		*capture = map[string]string{}
		for k := range q {
			(*capture)[k] = q.Get(k)
		}
		resp := map[string]any{
			"status":       "success",
			"totalResults": count,
			"results":      articles,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func Test_SearchNews(t *testing.T) {
	var captured map[string]string
	srv := newAPIServer(t, 8, &captured)

	client, err := news.NewClient("key123", news.WithBaseURL(srv.URL))
	require.NoError(t, err)

	tool := news.NewSearch(client)
	assert.Equal(t, "search_news", tool.Name())

	res, err := tool.Run(t.Context(), &news.SearchRequest{Query: "quantum computing"})
	require.NoError(t, err)
	assert.Equal(t, "key123", captured["apikey"])
	assert.Equal(t, "quantum computing", captured["q"])
	assert.Equal(t, "en", captured["language"])
	assert.Equal(t, 8, res.TotalResults)
	// capped even when the API returns more
	require.Len(t, res.Articles, news.MaxArticles)
	assert.NotEmpty(t, res.Articles[0].Title)
	assert.NotEmpty(t, res.Articles[0].Source)
	assert.NotEmpty(t, res.Articles[0].Link)

	_, err = tool.Run(t.Context(), &news.SearchRequest{Query: "ai", Language: "de"})
	require.NoError(t, err)
	assert.Equal(t, "de", captured["language"])

	_, err = tool.Run(t.Context(), &news.SearchRequest{})
	assert.EqualError(t, err, "query is required")
}

func Test_Headlines(t *testing.T) {
	var captured map[string]string
	srv := newAPIServer(t, 3, &captured)

	client, err := news.NewClient("key123", news.WithBaseURL(srv.URL))
	require.NoError(t, err)

	tool := news.NewHeadlines(client)
	assert.Equal(t, "get_headlines", tool.Name())

	res, err := tool.Run(t.Context(), &news.HeadlinesRequest{})
	require.NoError(t, err)
	assert.Equal(t, "us", captured["country"])
	_, hasCategory := captured["category"]
	assert.False(t, hasCategory)
	assert.Len(t, res.Articles, 3)

	res, err = tool.Run(t.Context(), &news.HeadlinesRequest{Category: "Technology", Country: "gb"})
	require.NoError(t, err)
	assert.Equal(t, "gb", captured["country"])
	assert.Equal(t, "technology", captured["category"])
	assert.Equal(t, "technology", res.Category)

	_, err = tool.Run(t.Context(), &news.HeadlinesRequest{Category: "astrology"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid category "astrology"`)
	assert.Contains(t, err.Error(), "business")
}

func Test_NewClient_RequiresKey(t *testing.T) {
	t.Setenv("NEWSDATA_API_KEY", "")
	_, err := news.NewClient("")
	assert.EqualError(t, err, "news: API key is required, set NEWSDATA_API_KEY")

	t.Setenv("NEWSDATA_API_KEY", "envkey")
	client, err := news.NewClient("")
	require.NoError(t, err)
	require.NotNil(t, client)
}

func Test_APIFailure(t *testing.T) {
	tcases := []struct {
		status int
		body   string
		exp    string
	}{
		{http.StatusUnauthorized, `{"status": "error"}`, "news API returned 401"},
		{http.StatusOK, `{"status": "error", "results": []}`, "news API status: error"},
		{http.StatusOK, `not json`, "failed to decode news API response"},
	}
	for i, tc := range tcases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client, err := news.NewClient("key", news.WithBaseURL(srv.URL))
			require.NoError(t, err)

			_, err = news.NewSearch(client).Run(t.Context(), &news.SearchRequest{Query: "x"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.exp)
		})
	}
}

func Test_Call(t *testing.T) {
	var captured map[string]string
	srv := newAPIServer(t, 1, &captured)

	client, err := news.NewClient("key", news.WithBaseURL(srv.URL))
	require.NoError(t, err)

	out, err := news.NewSearch(client).Call(t.Context(), `{"query": "markets"}`)
	require.NoError(t, err)
	var res news.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Articles, 1)

	list := news.Tools(client)
	require.Len(t, list, 2)
}
