package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"postboard/internal/model"
	"postboard/internal/service"
)

// PostHandler handles post endpoints.
type PostHandler struct {
	postService service.PostService
}

// NewPostHandler creates a new post handler.
func NewPostHandler(postService service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// CreatePostRequest represents a post creation request.
type CreatePostRequest struct {
	Title string `json:"title" validate:"required"`
	Text  string `json:"text" validate:"required"`
}

// CreatePostResponse is returned after a post is stored.
type CreatePostResponse struct {
	Message string     `json:"message"`
	Post    model.Post `json:"post"`
}

// CreatePost godoc
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body CreatePostRequest true "Post payload"
// @Success 201 {object} CreatePostResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts [post]
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	if err := c.Validate(&req); err != nil {
		return missingFields()
	}

	post, err := h.postService.CreatePost(c.Request().Context(), req.Title, req.Text)
	if err != nil {
		return respondError(c, err, true)
	}

	return c.JSON(http.StatusCreated, CreatePostResponse{
		Message: "Post created successfully",
		Post:    *post,
	})
}

// ListPosts godoc
// @Summary List posts, newest first
// @Tags posts
// @Produce json
// @Success 200 {array} model.Post
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts [get]
func (h *PostHandler) ListPosts(c echo.Context) error {
	posts, err := h.postService.ListPosts(c.Request().Context())
	if err != nil {
		return respondError(c, err, true)
	}
	return c.JSON(http.StatusOK, posts)
}
