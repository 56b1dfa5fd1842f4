package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ascenthq/ascent-api/internal/dto"
	"github.com/ascenthq/ascent-api/pkg/discovery"
)

const (
	defaultResourceLimit = 5
	defaultArticleLimit  = 10
	defaultArticleTopic  = "technology"
)

// ResourceService aggregates learning resources from the configured
// discovery backends. Upstream failures never fail the request; the failed
// kind simply comes back empty.
type ResourceService interface {
	Discover(ctx context.Context, query dto.ResourceQuery) (dto.ResourceBundle, error)
	Articles(ctx context.Context, query dto.ArticleQuery) (dto.ArticleFeed, error)
}

type resourceService struct {
	videos      discovery.VideoSearcher
	papers      discovery.PaperSearcher
	web         discovery.WebSearcher
	articles    discovery.ArticleSearcher
	redis       *redis.Client
	cachePrefix string
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewResourceService constructs the resource discovery service. Any searcher
// may be nil when its backend is not configured.
func NewResourceService(videos discovery.VideoSearcher, papers discovery.PaperSearcher, web discovery.WebSearcher, articles discovery.ArticleSearcher, redisClient *redis.Client, channelBase string, cacheTTL time.Duration, validate *validator.Validate, logger zerolog.Logger) ResourceService {
	prefix := ""
	if channelBase != "" {
		prefix = channelBase + ":resources"
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}

	return &resourceService{
		videos:      videos,
		papers:      papers,
		web:         web,
		articles:    articles,
		redis:       redisClient,
		cachePrefix: prefix,
		cacheTTL:    cacheTTL,
		validator:   validate,
		logger:      logger.With().Str("component", "resource_service").Logger(),
		tracer:      otel.Tracer("github.com/ascenthq/ascent-api/internal/service/resource"),
	}
}

func (s *resourceService) Discover(parent context.Context, query dto.ResourceQuery) (dto.ResourceBundle, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.ResourceBundle{}, err
	}

	if query.Kind == "" {
		query.Kind = dto.ResourceKindAll
	}
	if query.Limit <= 0 {
		query.Limit = defaultResourceLimit
	}
	query.Topic = strings.TrimSpace(query.Topic)

	ctx, span := s.tracer.Start(parent, "resources.discover", trace.WithAttributes(
		attribute.String("resource.topic", query.Topic),
		attribute.String("resource.kind", query.Kind),
	))
	defer span.End()

	cacheKey := s.cacheKey(query)
	if cached, ok := s.cachedBundle(ctx, cacheKey); ok {
		return cached, nil
	}

	var bundle dto.ResourceBundle

	if s.videos != nil && (query.Kind == dto.ResourceKindAll || query.Kind == dto.ResourceKindVideos) {
		videos, err := s.videos.SearchVideos(ctx, query.Topic, query.Limit)
		if err != nil {
			s.logger.Warn().Err(err).Str("topic", query.Topic).Msg("video search failed")
		} else {
			bundle.Videos = videos
		}
	}

	if s.papers != nil && (query.Kind == dto.ResourceKindAll || query.Kind == dto.ResourceKindPapers) {
		papers, err := s.papers.SearchPapers(ctx, query.Topic, query.Limit)
		if err != nil {
			s.logger.Warn().Err(err).Str("topic", query.Topic).Msg("paper search failed")
		} else {
			bundle.Papers = papers
		}
	}

	if s.web != nil && (query.Kind == dto.ResourceKindAll || query.Kind == dto.ResourceKindWeb) {
		web, err := s.web.SearchWeb(ctx, query.Topic, query.Limit)
		if err != nil {
			s.logger.Warn().Err(err).Str("topic", query.Topic).Msg("web search failed")
		} else {
			bundle.Web = web
		}
	}

	s.cacheBundle(ctx, cacheKey, bundle)
	return bundle, nil
}

func (s *resourceService) Articles(parent context.Context, query dto.ArticleQuery) (dto.ArticleFeed, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.ArticleFeed{}, err
	}

	query.Topic = strings.TrimSpace(query.Topic)
	if query.Topic == "" {
		query.Topic = defaultArticleTopic
	}
	if query.Limit <= 0 {
		query.Limit = defaultArticleLimit
	}
	if query.Page < 0 {
		query.Page = 0
	}

	ctx, span := s.tracer.Start(parent, "resources.articles", trace.WithAttributes(
		attribute.String("article.topic", query.Topic),
		attribute.Int("article.page", query.Page),
	))
	defer span.End()

	feed := dto.ArticleFeed{Topic: query.Topic, Page: query.Page, Articles: []discovery.Article{}}

	cacheKey := s.articleCacheKey(query)
	if cached, ok := s.cachedFeed(ctx, cacheKey); ok {
		return cached, nil
	}

	if s.articles == nil {
		return feed, nil
	}

	articles, err := s.articles.SearchArticles(ctx, query.Topic, query.Limit, query.Page)
	if err != nil {
		// The feed degrades to an empty page rather than failing.
		s.logger.Warn().Err(err).Str("topic", query.Topic).Msg("article search failed")
		return feed, nil
	}
	feed.Articles = articles

	s.cacheFeed(ctx, cacheKey, feed)
	return feed, nil
}

func (s *resourceService) articleCacheKey(query dto.ArticleQuery) string {
	if s.redis == nil || s.cachePrefix == "" {
		return ""
	}
	topic := strings.ToLower(strings.ReplaceAll(query.Topic, " ", "_"))
	return s.cachePrefix + ":articles:" + topic + ":" + strconv.Itoa(query.Page)
}

func (s *resourceService) cachedFeed(ctx context.Context, key string) (dto.ArticleFeed, bool) {
	if key == "" {
		return dto.ArticleFeed{}, false
	}

	raw, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return dto.ArticleFeed{}, false
	}

	var feed dto.ArticleFeed
	if err := json.Unmarshal([]byte(raw), &feed); err != nil {
		s.logger.Warn().Err(err).Msg("failed to unmarshal cached article feed")
		return dto.ArticleFeed{}, false
	}
	return feed, true
}

func (s *resourceService) cacheFeed(ctx context.Context, key string, feed dto.ArticleFeed) {
	if key == "" {
		return
	}

	payload, err := json.Marshal(feed)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache article feed")
	}
}

func (s *resourceService) cacheKey(query dto.ResourceQuery) string {
	if s.redis == nil || s.cachePrefix == "" {
		return ""
	}
	topic := strings.ToLower(query.Topic)
	return s.cachePrefix + ":" + query.Kind + ":" + strings.ReplaceAll(topic, " ", "_")
}

func (s *resourceService) cachedBundle(ctx context.Context, key string) (dto.ResourceBundle, bool) {
	if key == "" {
		return dto.ResourceBundle{}, false
	}

	raw, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return dto.ResourceBundle{}, false
	}

	var bundle dto.ResourceBundle
	if err := json.Unmarshal([]byte(raw), &bundle); err != nil {
		s.logger.Warn().Err(err).Msg("failed to unmarshal cached resource bundle")
		return dto.ResourceBundle{}, false
	}
	return bundle, true
}

func (s *resourceService) cacheBundle(ctx context.Context, key string, bundle dto.ResourceBundle) {
	if key == "" {
		return
	}

	payload, err := json.Marshal(bundle)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache resource bundle")
	}
}
