package handler

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Logger.SetOutput(io.Discard)
	e.Validator = NewValidator()
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newAuthEcho(svc *MockAuthService) *echo.Echo {
	e := newTestEcho()
	h := NewAuthHandler(svc)
	e.POST("/api/register", h.Register)
	e.POST("/api/login", h.Login)
	return e
}

func newPostEcho(svc *MockPostService) *echo.Echo {
	e := newTestEcho()
	h := NewPostHandler(svc)
	e.POST("/api/posts", h.CreatePost)
	e.GET("/api/posts", h.ListPosts)
	return e
}

var errDB = errors.New("connection refused")
