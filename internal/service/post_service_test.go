package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "postboard/internal/errors"
	"postboard/internal/model"
)

func TestPostService_CreatePost(t *testing.T) {
	mockRepo := new(MockPostRepository)
	mockStore := new(MockStore)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Post")).
		Run(func(args mock.Arguments) {
			p := args.Get(1).(*model.Post)
			p.ID = 5
			p.CreatedAt = time.Now()
		}).
		Return(nil)
	mockStore.On("Incr", mock.Anything, postsVersionKey).Return(int64(1), nil)

	svc := NewPostService(mockRepo, mockStore)
	post, err := svc.CreatePost(context.Background(), "A", "B")

	require.NoError(t, err)
	assert.Equal(t, uint(5), post.ID)
	assert.Equal(t, "A", post.Title)
	assert.Equal(t, "B", post.Text)
	mockRepo.AssertExpectations(t)
	mockStore.AssertExpectations(t)
}

func TestPostService_CreatePost_MissingFields(t *testing.T) {
	for _, in := range [][2]string{{"", "B"}, {"A", ""}, {"", ""}} {
		mockRepo := new(MockPostRepository)
		svc := NewPostService(mockRepo, nil)

		post, err := svc.CreatePost(context.Background(), in[0], in[1])
		assert.ErrorIs(t, err, apperrors.ErrMissingFields)
		assert.Nil(t, post)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	}
}

func TestPostService_CreatePost_PersistenceError(t *testing.T) {
	mockRepo := new(MockPostRepository)
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("relation \"posts\" does not exist"))

	svc := NewPostService(mockRepo, nil)
	_, err := svc.CreatePost(context.Background(), "A", "B")

	assert.True(t, apperrors.IsPersistence(err))
}

func TestPostService_ListPosts_Empty(t *testing.T) {
	mockRepo := new(MockPostRepository)
	mockRepo.On("List", mock.Anything).Return(nil, nil)

	svc := NewPostService(mockRepo, nil)
	posts, err := svc.ListPosts(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestPostService_ListPosts_CacheMissPopulates(t *testing.T) {
	stored := []model.Post{{ID: 2, Title: "new"}, {ID: 1, Title: "old"}}
	mockRepo := new(MockPostRepository)
	mockStore := new(MockStore)
	mockStore.On("Get", mock.Anything, postsVersionKey).Return([]byte("3"), nil)
	mockStore.On("Get", mock.Anything, postsCacheKey(3)).Return(nil, nil)
	mockRepo.On("List", mock.Anything).Return(stored, nil)
	mockStore.On("Set", mock.Anything, postsCacheKey(3), mock.Anything, PostsCacheTTL).Return(nil)

	svc := NewPostService(mockRepo, mockStore)
	posts, err := svc.ListPosts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, stored, posts)
	mockRepo.AssertExpectations(t)
	mockStore.AssertExpectations(t)
}

func TestPostService_ListPosts_CacheHit(t *testing.T) {
	payload, err := json.Marshal([]model.Post{{ID: 9, Title: "cached"}})
	require.NoError(t, err)

	mockRepo := new(MockPostRepository)
	mockStore := new(MockStore)
	mockStore.On("Get", mock.Anything, postsVersionKey).Return(nil, nil)
	mockStore.On("Get", mock.Anything, postsCacheKey(0)).Return(payload, nil)

	svc := NewPostService(mockRepo, mockStore)
	posts, err := svc.ListPosts(context.Background())

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "cached", posts[0].Title)
	mockRepo.AssertNotCalled(t, "List", mock.Anything)
}

func TestPostService_ListPosts_PersistenceError(t *testing.T) {
	mockRepo := new(MockPostRepository)
	mockRepo.On("List", mock.Anything).Return(nil, errors.New("timeout"))

	svc := NewPostService(mockRepo, nil)
	posts, err := svc.ListPosts(context.Background())

	assert.Nil(t, posts)
	assert.True(t, apperrors.IsPersistence(err))
}

// memoryStore is an in-process cache.Store.
type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memoryStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _ := strconv.ParseInt(string(s.data[key]), 10, 64)
	n++
	s.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

// slowListRepo holds its first List call open, after taking the snapshot,
// until release is closed.
type slowListRepo struct {
	mu      sync.Mutex
	rows    []model.Post
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (r *slowListRepo) Create(_ context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = uint(len(r.rows) + 1)
	r.rows = append([]model.Post{*post}, r.rows...)
	return nil
}

func (r *slowListRepo) List(_ context.Context) ([]model.Post, error) {
	r.mu.Lock()
	snapshot := append([]model.Post{}, r.rows...)
	r.calls++
	first := r.calls == 1
	r.mu.Unlock()

	if first {
		close(r.entered)
		<-r.release
	}
	return snapshot, nil
}

func TestPostService_ListPosts_StaleSnapshotNotServedAfterCreate(t *testing.T) {
	repo := &slowListRepo{entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewPostService(repo, newMemoryStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		posts, err := svc.ListPosts(ctx)
		assert.NoError(t, err)
		assert.Empty(t, posts)
	}()

	<-repo.entered
	_, err := svc.CreatePost(ctx, "A", "B")
	require.NoError(t, err)
	close(repo.release)
	wg.Wait()

	posts, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, posts)
	assert.Equal(t, "A", posts[0].Title)
}

func TestPostService_CreatePost_BumpsListGeneration(t *testing.T) {
	repo := &slowListRepo{entered: make(chan struct{}), release: make(chan struct{})}
	close(repo.release)
	store := newMemoryStore()
	svc := NewPostService(repo, store)
	ctx := context.Background()

	_, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	cached, _ := store.Get(ctx, postsCacheKey(0))
	assert.JSONEq(t, "[]", string(cached))

	_, err = svc.CreatePost(ctx, "A", "B")
	require.NoError(t, err)
	version, _ := store.Get(ctx, postsVersionKey)
	assert.Equal(t, "1", string(version))

	posts, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, 2, repo.calls)
}
