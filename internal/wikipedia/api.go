package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"timelines/internal/services"
)

// MaxTitlesPerQuery is the MediaWiki limit on titles per query request for
// ordinary clients.
const MaxTitlesPerQuery = 50

// TitleMapping is one entry of the normalized or redirects table.
type TitleMapping struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// QueryPage is a page entry of a query response. Missing is set for titles
// that do not exist.
type QueryPage struct {
	PageID    int               `json:"pageid"`
	Title     string            `json:"title"`
	Missing   bool              `json:"-"`
	PageProps map[string]string `json:"pageprops"`
}

// QueryResult is the title-resolution part of a query response.
type QueryResult struct {
	Normalized []TitleMapping
	Redirects  []TitleMapping
	// Pages is keyed by the canonical page title.
	Pages map[string]QueryPage
}

type queryResponse struct {
	Query struct {
		Normalized []TitleMapping `json:"normalized"`
		Redirects  []TitleMapping `json:"redirects"`
		Pages      map[string]struct {
			PageID    int               `json:"pageid"`
			Title     string            `json:"title"`
			Missing   *string           `json:"missing"`
			Invalid   *string           `json:"invalid"`
			PageProps map[string]string `json:"pageprops"`
		} `json:"pages"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// APIClient issues MediaWiki API queries through a Client so they share its
// limiter, in-flight cap and retry policy.
type APIClient struct {
	client   *Client
	endpoint string
}

// NewAPIClient targets the api.php endpoint, for example
// "https://en.wikipedia.org/w/api.php".
func NewAPIClient(client *Client, endpoint string) *APIClient {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = client.cfg.BaseURL + "/w/api.php"
	}
	return &APIClient{client: client, endpoint: endpoint}
}

// QueryTitles resolves up to MaxTitlesPerQuery titles in one request,
// following redirects and reading each page's knowledge-base item.
func (a *APIClient) QueryTitles(ctx context.Context, titles []string) (*QueryResult, error) {
	if len(titles) == 0 {
		return &QueryResult{Pages: map[string]QueryPage{}}, nil
	}
	if len(titles) > MaxTitlesPerQuery {
		return nil, services.Wrap(services.ErrValidation, "wikipedia", "query titles",
			fmt.Sprintf("%d titles exceeds limit of %d", len(titles), MaxTitlesPerQuery), nil)
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("redirects", "1")
	params.Set("prop", "pageprops")
	params.Set("ppprop", "wikibase_item")
	params.Set("titles", strings.Join(titles, "|"))
	endpoint := a.endpoint + "?" + params.Encode()

	started := time.Now()
	body, err := a.client.get(ctx, endpoint)
	a.client.observe("api", err, time.Since(started))
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "wikipedia", "query titles", "", err)
	}

	var payload queryResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, services.Wrap(services.ErrFetch, "wikipedia", "query titles", "decode response", err)
	}
	if payload.Error != nil {
		return nil, services.Wrap(services.ErrFetch, "wikipedia", "query titles",
			fmt.Sprintf("api error %s: %s", payload.Error.Code, payload.Error.Info), nil)
	}

	result := &QueryResult{
		Normalized: payload.Query.Normalized,
		Redirects:  payload.Query.Redirects,
		Pages:      make(map[string]QueryPage, len(payload.Query.Pages)),
	}
	for _, page := range payload.Query.Pages {
		result.Pages[page.Title] = QueryPage{
			PageID:    page.PageID,
			Title:     page.Title,
			Missing:   page.Missing != nil || page.Invalid != nil,
			PageProps: page.PageProps,
		}
	}
	return result, nil
}
