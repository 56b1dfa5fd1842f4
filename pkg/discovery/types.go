package discovery

import "context"

// Video is a single video search result.
type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Thumbnail    string `json:"thumbnail"`
	PublishedAt  string `json:"published_at"`
	ChannelTitle string `json:"channel_title"`
	URL          string `json:"url"`
}

// Paper is a single academic paper search result.
type Paper struct {
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Abstract string   `json:"abstract"`
	Year     string   `json:"year"`
	URL      string   `json:"url"`
}

// WebResult is a single general web search result.
type WebResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Article is a single published story from the article feed.
type Article struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Author      string `json:"author"`
	PublishedAt string `json:"published_at"`
	URL         string `json:"url"`
}

// Repo summarises a public source repository for coach context.
type Repo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// VideoSearcher finds learning videos for a topic.
type VideoSearcher interface {
	SearchVideos(ctx context.Context, topic string, limit int) ([]Video, error)
}

// PaperSearcher finds academic papers for a topic.
type PaperSearcher interface {
	SearchPapers(ctx context.Context, topic string, limit int) ([]Paper, error)
}

// WebSearcher finds general web resources for a topic.
type WebSearcher interface {
	SearchWeb(ctx context.Context, topic string, limit int) ([]WebResult, error)
}

// ArticleSearcher finds published stories for a topic, one page at a time.
type ArticleSearcher interface {
	SearchArticles(ctx context.Context, topic string, limit, page int) ([]Article, error)
}

// RepoLister fetches a user's public repositories.
type RepoLister interface {
	ListRepos(ctx context.Context, username string) ([]Repo, error)
}
