package repository

import (
	"context"

	"gorm.io/gorm"

	"postboard/internal/model"
)

// PostRepository defines post persistence operations.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	List(ctx context.Context) ([]model.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a post and fills in its generated id and timestamp.
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// List returns every post, newest first. id breaks created_at ties.
func (r *postRepository) List(ctx context.Context) ([]model.Post, error) {
	posts := make([]model.Post, 0)
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}
