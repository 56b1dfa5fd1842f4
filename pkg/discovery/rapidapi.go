package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const (
	scholarSearchURL = "https://google-scholar1.p.rapidapi.com/search_pubs"
	scholarHost      = "google-scholar1.p.rapidapi.com"
	webSearchURL     = "https://google-search74.p.rapidapi.com/"
	webSearchHost    = "google-search74.p.rapidapi.com"
	storySearchURL   = "https://medium16.p.rapidapi.com/search/stories"
	storySearchHost  = "medium16.p.rapidapi.com"
)

// RapidAPIClient talks to the RapidAPI-hosted scholar and web search services.
type RapidAPIClient struct {
	apiKey string
	http   *http.Client
	logger zerolog.Logger
}

// NewRapidAPIClient constructs a RapidAPI search client.
func NewRapidAPIClient(apiKey string, logger zerolog.Logger) (*RapidAPIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("rapidapi key must be provided")
	}

	return &RapidAPIClient{
		apiKey: apiKey,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: logger.With().Str("component", "rapidapi_client").Logger(),
	}, nil
}

// SearchPapers returns up to limit academic papers matching the topic.
func (c *RapidAPIClient) SearchPapers(ctx context.Context, topic string, limit int) ([]Paper, error) {
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("query", topic)
	params.Set("max_results", strconv.Itoa(limit))
	params.Set("sort_by", "relevance")
	params.Set("start_index", "0")

	body, err := c.get(ctx, scholarSearchURL+"?"+params.Encode(), scholarHost)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Result []struct {
			Bib struct {
				Title    string   `json:"title"`
				Author   []string `json:"author"`
				Abstract string   `json:"abstract"`
				PubYear  string   `json:"pub_year"`
			} `json:"bib"`
			PubURL string `json:"pub_url"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode scholar response: %w", err)
	}

	papers := make([]Paper, 0, limit)
	for _, item := range payload.Result {
		if len(papers) == limit {
			break
		}
		papers = append(papers, Paper{
			Title:    item.Bib.Title,
			Authors:  item.Bib.Author,
			Abstract: item.Bib.Abstract,
			Year:     item.Bib.PubYear,
			URL:      item.PubURL,
		})
	}
	return papers, nil
}

// SearchWeb returns up to limit general web results matching the topic.
func (c *RapidAPIClient) SearchWeb(ctx context.Context, topic string, limit int) ([]WebResult, error) {
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("query", topic)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("related_keywords", "false")

	body, err := c.get(ctx, webSearchURL+"?"+params.Encode(), webSearchHost)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Results []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode web search response: %w", err)
	}

	results := make([]WebResult, 0, limit)
	for _, item := range payload.Results {
		if len(results) == limit {
			break
		}
		results = append(results, WebResult{
			Title:   item.Title,
			Snippet: item.Description,
			URL:     item.URL,
		})
	}
	return results, nil
}

// SearchArticles returns one page of published stories matching the topic.
func (c *RapidAPIClient) SearchArticles(ctx context.Context, topic string, limit, page int) ([]Article, error) {
	if limit <= 0 {
		limit = 10
	}
	if page < 0 {
		page = 0
	}

	params := url.Values{}
	params.Set("q", topic)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("page", strconv.Itoa(page))

	body, err := c.get(ctx, storySearchURL+"?"+params.Encode(), storySearchHost)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data []struct {
			ID          string `json:"id"`
			Title       string `json:"title"`
			Subtitle    string `json:"subtitle"`
			Author      string `json:"author"`
			PublishedAt string `json:"published_at"`
			URL         string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode story search response: %w", err)
	}

	articles := make([]Article, 0, limit)
	for _, item := range payload.Data {
		if len(articles) == limit {
			break
		}
		articles = append(articles, Article{
			ID:          item.ID,
			Title:       item.Title,
			Subtitle:    item.Subtitle,
			Author:      item.Author,
			PublishedAt: item.PublishedAt,
			URL:         item.URL,
		})
	}
	return articles, nil
}

func (c *RapidAPIClient) get(ctx context.Context, rawURL, host string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build rapidapi request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", host)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rapidapi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rapidapi request: unexpected status %d", resp.StatusCode)
	}

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rapidapi response: %w", err)
	}
	return buf, nil
}
