package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"postboard/internal/cache"
	apperrors "postboard/internal/errors"
	"postboard/internal/metrics"
	"postboard/internal/model"
	"postboard/internal/repository"
)

const (
	// postsVersionKey is bumped on every create. Listings are cached under
	// the version read before the datastore query, so a snapshot taken
	// before a create can never be served after it.
	postsVersionKey = "posts:version"
	// PostsCacheTTL bounds how long a cached listing may be served.
	PostsCacheTTL = 30 * time.Second
)

// PostService exposes post operations.
type PostService interface {
	CreatePost(ctx context.Context, title, text string) (*model.Post, error)
	ListPosts(ctx context.Context) ([]model.Post, error)
}

type postService struct {
	repo  repository.PostRepository
	cache cache.Store
}

func postsCacheKey(version int64) string {
	return fmt.Sprintf("posts:all:v%d", version)
}

// NewPostService builds a PostService with repository and cache. A nil
// store disables caching.
func NewPostService(repo repository.PostRepository, store cache.Store) PostService {
	if store == nil {
		store = (*cache.Client)(nil)
	}
	return &postService{repo: repo, cache: store}
}

func (s *postService) CreatePost(ctx context.Context, title, text string) (*model.Post, error) {
	if title == "" || text == "" {
		return nil, apperrors.ErrMissingFields
	}

	post := &model.Post{Title: title, Text: text}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, apperrors.Persistence("create post", err)
	}

	_, _ = s.cache.Incr(ctx, postsVersionKey)
	metrics.PostsCreated.Inc()
	return post, nil
}

// ListPosts returns all posts newest first. An empty table yields an empty,
// non-nil slice.
func (s *postService) ListPosts(ctx context.Context) ([]model.Post, error) {
	key := postsCacheKey(s.version(ctx))
	if data, _ := s.cache.Get(ctx, key); data != nil {
		var cached []model.Post
		if err := json.Unmarshal(data, &cached); err == nil && cached != nil {
			return cached, nil
		}
	}

	posts, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Persistence("list posts", err)
	}
	if posts == nil {
		posts = []model.Post{}
	}

	if payload, err := json.Marshal(posts); err == nil {
		_ = s.cache.Set(ctx, key, payload, PostsCacheTTL)
	}
	return posts, nil
}

// version returns the current posts generation; a missing or unreadable
// counter counts as 0.
func (s *postService) version(ctx context.Context) int64 {
	data, _ := s.cache.Get(ctx, postsVersionKey)
	if data == nil {
		return 0
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
