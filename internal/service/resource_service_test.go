package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ascenthq/ascent-api/internal/dto"
	"github.com/ascenthq/ascent-api/pkg/discovery"
)

type stubSearchers struct {
	videos       []discovery.Video
	videoErr     error
	videoCalls   int
	papers       []discovery.Paper
	web          []discovery.WebResult
	articles     []discovery.Article
	articleErr   error
	articleCalls int
	lastPage     int
	lastTopic    string
}

func (s *stubSearchers) SearchVideos(_ context.Context, _ string, _ int) ([]discovery.Video, error) {
	s.videoCalls++
	return s.videos, s.videoErr
}

func (s *stubSearchers) SearchPapers(_ context.Context, _ string, _ int) ([]discovery.Paper, error) {
	return s.papers, nil
}

func (s *stubSearchers) SearchWeb(_ context.Context, _ string, _ int) ([]discovery.WebResult, error) {
	return s.web, nil
}

func (s *stubSearchers) SearchArticles(_ context.Context, topic string, _ int, page int) ([]discovery.Article, error) {
	s.articleCalls++
	s.lastTopic = topic
	s.lastPage = page
	return s.articles, s.articleErr
}

func newResourceService(t *testing.T, searchers *stubSearchers, withRedis bool) ResourceService {
	t.Helper()

	var redisClient *redis.Client
	if withRedis {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)

		redisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = redisClient.Close() })
	}

	return NewResourceService(
		searchers,
		searchers,
		searchers,
		searchers,
		redisClient,
		"ascent-test",
		time.Minute,
		validator.New(validator.WithRequiredStructEnabled()),
		zerolog.Nop(),
	)
}

func TestResourceDiscoverAggregatesAllKinds(t *testing.T) {
	searchers := &stubSearchers{
		videos: []discovery.Video{{Title: "Go Concurrency"}},
		papers: []discovery.Paper{{Title: "CSP"}},
		web:    []discovery.WebResult{{Title: "Go blog"}},
	}
	svc := newResourceService(t, searchers, false)

	bundle, err := svc.Discover(context.Background(), dto.ResourceQuery{Topic: "goroutines"})
	require.NoError(t, err)
	require.Len(t, bundle.Videos, 1)
	require.Len(t, bundle.Papers, 1)
	require.Len(t, bundle.Web, 1)
}

func TestResourceDiscoverFiltersByKind(t *testing.T) {
	searchers := &stubSearchers{
		videos: []discovery.Video{{Title: "Go Concurrency"}},
		papers: []discovery.Paper{{Title: "CSP"}},
	}
	svc := newResourceService(t, searchers, false)

	bundle, err := svc.Discover(context.Background(), dto.ResourceQuery{Topic: "goroutines", Kind: dto.ResourceKindPapers})
	require.NoError(t, err)
	require.Empty(t, bundle.Videos)
	require.Len(t, bundle.Papers, 1)
	require.Zero(t, searchers.videoCalls)
}

func TestResourceDiscoverToleratesUpstreamFailure(t *testing.T) {
	searchers := &stubSearchers{
		videoErr: errors.New("quota exceeded"),
		web:      []discovery.WebResult{{Title: "Go blog"}},
	}
	svc := newResourceService(t, searchers, false)

	bundle, err := svc.Discover(context.Background(), dto.ResourceQuery{Topic: "goroutines"})
	require.NoError(t, err)
	require.Empty(t, bundle.Videos)
	require.Len(t, bundle.Web, 1)
}

func TestResourceDiscoverCachesBundle(t *testing.T) {
	searchers := &stubSearchers{videos: []discovery.Video{{Title: "Go Concurrency"}}}
	svc := newResourceService(t, searchers, true)

	query := dto.ResourceQuery{Topic: "Go Routines", Kind: dto.ResourceKindVideos}

	first, err := svc.Discover(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, first.Videos, 1)

	second, err := svc.Discover(context.Background(), query)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, searchers.videoCalls)
}

func TestResourceDiscoverRejectsMissingTopic(t *testing.T) {
	svc := newResourceService(t, &stubSearchers{}, false)

	_, err := svc.Discover(context.Background(), dto.ResourceQuery{})
	require.Error(t, err)
}

func TestResourceArticlesDefaultsAndPaginates(t *testing.T) {
	searchers := &stubSearchers{articles: []discovery.Article{{Title: "Go in 2026"}}}
	svc := newResourceService(t, searchers, false)

	feed, err := svc.Articles(context.Background(), dto.ArticleQuery{})
	require.NoError(t, err)
	require.Equal(t, "technology", feed.Topic)
	require.Equal(t, 0, feed.Page)
	require.Len(t, feed.Articles, 1)
	require.Equal(t, "technology", searchers.lastTopic)

	feed, err = svc.Articles(context.Background(), dto.ArticleQuery{Topic: "Machine Learning", Page: 2})
	require.NoError(t, err)
	require.Equal(t, "Machine Learning", feed.Topic)
	require.Equal(t, 2, feed.Page)
	require.Equal(t, 2, searchers.lastPage)
}

func TestResourceArticlesDegradeOnFailure(t *testing.T) {
	searchers := &stubSearchers{articleErr: errors.New("quota exceeded")}
	svc := newResourceService(t, searchers, false)

	feed, err := svc.Articles(context.Background(), dto.ArticleQuery{Topic: "react"})
	require.NoError(t, err)
	require.Empty(t, feed.Articles)
}

func TestResourceArticlesCachePerPage(t *testing.T) {
	searchers := &stubSearchers{articles: []discovery.Article{{Title: "Go in 2026"}}}
	svc := newResourceService(t, searchers, true)

	first, err := svc.Articles(context.Background(), dto.ArticleQuery{Topic: "golang", Page: 1})
	require.NoError(t, err)
	require.Len(t, first.Articles, 1)

	second, err := svc.Articles(context.Background(), dto.ArticleQuery{Topic: "golang", Page: 1})
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, searchers.articleCalls)

	_, err = svc.Articles(context.Background(), dto.ArticleQuery{Topic: "golang", Page: 2})
	require.NoError(t, err)
	require.Equal(t, 2, searchers.articleCalls)
}
