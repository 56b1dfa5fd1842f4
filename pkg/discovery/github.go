package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const githubAPIBase = "https://api.github.com"

// GitHubClient lists a user's public repositories for coach context.
type GitHubClient struct {
	http   *http.Client
	logger zerolog.Logger
}

// NewGitHubClient constructs a GitHub client. The public repos endpoint
// needs no credentials.
func NewGitHubClient(logger zerolog.Logger) *GitHubClient {
	return &GitHubClient{
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: logger.With().Str("component", "github_client").Logger(),
	}
}

// ListRepos fetches the user's public repositories.
func (c *GitHubClient) ListRepos(ctx context.Context, username string) ([]Repo, error) {
	endpoint := fmt.Sprintf("%s/users/%s/repos", githubAPIBase, url.PathEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build github request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github repos: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github repos: unexpected status %d", resp.StatusCode)
	}

	var payload []struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode github response: %w", err)
	}

	repos := make([]Repo, 0, len(payload))
	for _, item := range payload {
		description := "No description available"
		if item.Description != nil && *item.Description != "" {
			description = *item.Description
		}
		repos = append(repos, Repo{Title: item.Name, Description: description})
	}
	return repos, nil
}
