package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/spots-backend-go/internal/filter"
	"github.com/jengzang/spots-backend-go/internal/heatmap"
	"github.com/jengzang/spots-backend-go/internal/mapview"
	"github.com/jengzang/spots-backend-go/internal/picker"
	"github.com/jengzang/spots-backend-go/internal/session"
	"github.com/jengzang/spots-backend-go/pkg/response"
)

// respondError maps domain sentinel errors to HTTP status codes
func respondError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, mapview.ErrClosed):
		response.NotFound(c, "Session not found")
	case errors.Is(err, filter.ErrInvalidRadius),
		errors.Is(err, heatmap.ErrInvalidMonth),
		errors.Is(err, mapview.ErrInvalidMode),
		errors.Is(err, mapview.ErrUnknownEvent),
		errors.Is(err, picker.ErrNoRoute):
		response.BadRequest(c, message, err)
	case errors.Is(err, picker.ErrAlreadyActive),
		errors.Is(err, picker.ErrNotActive),
		errors.Is(err, picker.ErrNotPending):
		response.Conflict(c, message, err)
	default:
		response.Error(c, http.StatusInternalServerError, message, err)
	}
}

// userID returns the authenticated user, empty for anonymous requests
func userID(c *gin.Context) string {
	return c.GetString("user_id")
}
