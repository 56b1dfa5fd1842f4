package dto

import "github.com/ascenthq/ascent-api/pkg/discovery"

// Resource kinds accepted by the discovery endpoint.
const (
	ResourceKindAll    = "all"
	ResourceKindVideos = "videos"
	ResourceKindPapers = "papers"
	ResourceKindWeb    = "web"
)

// ResourceQuery captures a resource discovery request.
type ResourceQuery struct {
	Topic string `json:"topic" validate:"required,max=255"`
	Kind  string `json:"kind" validate:"omitempty,oneof=all videos papers web"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=10"`
}

// ResourceBundle groups discovery results per kind. A kind that failed
// upstream is returned empty rather than failing the whole request.
type ResourceBundle struct {
	Videos []discovery.Video     `json:"videos,omitempty"`
	Papers []discovery.Paper     `json:"papers,omitempty"`
	Web    []discovery.WebResult `json:"web,omitempty"`
}

// ArticleQuery captures a paginated article feed request. Topic defaults to
// a general technology feed when the student has not picked one.
type ArticleQuery struct {
	Topic string `json:"topic" validate:"omitempty,max=255"`
	Page  int    `json:"page" validate:"omitempty,min=0"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=25"`
}

// ArticleFeed is one page of the article feed.
type ArticleFeed struct {
	Topic    string              `json:"topic"`
	Page     int                 `json:"page"`
	Articles []discovery.Article `json:"articles"`
}
