package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const youtubeSearchURL = "https://www.googleapis.com/youtube/v3/search"

// YouTubeClient searches the YouTube Data API for learning videos.
type YouTubeClient struct {
	apiKey string
	http   *http.Client
	logger zerolog.Logger
}

// NewYouTubeClient constructs a YouTube search client.
func NewYouTubeClient(apiKey string, logger zerolog.Logger) (*YouTubeClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube api key must be provided")
	}

	return &YouTubeClient{
		apiKey: apiKey,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: logger.With().Str("component", "youtube_client").Logger(),
	}, nil
}

// SearchVideos returns up to limit videos matching the topic.
func (c *YouTubeClient) SearchVideos(ctx context.Context, topic string, limit int) ([]Video, error) {
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", topic)
	params.Set("part", "snippet")
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("type", "video")
	params.Set("relevanceLanguage", "en")
	params.Set("safeSearch", "moderate")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, youtubeSearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build youtube request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube search: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				PublishedAt string `json:"publishedAt"`
				Channel     string `json:"channelTitle"`
				Thumbnails  struct {
					Medium struct {
						URL string `json:"url"`
					} `json:"medium"`
				} `json:"thumbnails"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode youtube response: %w", err)
	}

	videos := make([]Video, 0, len(payload.Items))
	for _, item := range payload.Items {
		videos = append(videos, Video{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			Thumbnail:    item.Snippet.Thumbnails.Medium.URL,
			PublishedAt:  item.Snippet.PublishedAt,
			ChannelTitle: item.Snippet.Channel,
			URL:          "https://www.youtube.com/watch?v=" + item.ID.VideoID,
		})
	}
	return videos, nil
}
