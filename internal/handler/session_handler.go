package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/spots-backend-go/internal/mapview"
	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/internal/service"
	"github.com/jengzang/spots-backend-go/internal/session"
	"github.com/jengzang/spots-backend-go/pkg/response"
)

// SessionHandler handles HTTP requests for map sessions
type SessionHandler struct {
	service *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service *service.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

type sessionView struct {
	ID string `json:"id"`
	mapview.View
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body", err)
			return
		}
	}

	viewer := mapview.Viewer{UserID: userID(c), Theme: c.GetHeader("X-Theme")}
	sess, err := h.service.Create(c.Request.Context(), viewer, req, c.Query("species"))
	if err != nil {
		respondError(c, "Failed to create session", err)
		return
	}
	response.Created(c, sessionView{ID: sess.ID, View: sess.Map.View()})
}

// GetSession handles GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if c.Query("format") == "geojson" {
		c.JSON(http.StatusOK, service.MarkersToGeoJSON(sess.Map.Candidates()))
		return
	}
	h.respond(c, sess)
}

// DeleteSession handles DELETE /api/v1/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.service.Delete(c.Param("id"), userID(c)); err != nil {
		respondError(c, "Failed to delete session", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleTechnique handles POST /api/v1/sessions/:id/filters/techniques
func (h *SessionHandler) ToggleTechnique(c *gin.Context) {
	var req models.NameRequest
	sess, ok := h.bind(c, &req)
	if !ok {
		return
	}
	// A failed fetch is shown inline on the view
	if _, err := sess.Map.ToggleTechnique(c.Request.Context(), req.Name); errors.Is(err, mapview.ErrClosed) {
		respondError(c, "Failed to toggle technique", err)
		return
	}
	h.respond(c, sess)
}

// ToggleSpecies handles POST /api/v1/sessions/:id/filters/species
func (h *SessionHandler) ToggleSpecies(c *gin.Context) {
	var req models.NameRequest
	sess, ok := h.bind(c, &req)
	if !ok {
		return
	}
	if _, err := sess.Map.ToggleSpecies(c.Request.Context(), req.Name); errors.Is(err, mapview.ErrClosed) {
		respondError(c, "Failed to toggle species", err)
		return
	}
	h.respond(c, sess)
}

// SetRadius handles PUT /api/v1/sessions/:id/filters/radius
func (h *SessionHandler) SetRadius(c *gin.Context) {
	var req models.RadiusRequest
	sess, ok := h.bind(c, &req)
	if !ok {
		return
	}
	if _, err := sess.Map.SetRadius(req.RadiusKm); err != nil {
		respondError(c, "Failed to set radius", err)
		return
	}
	h.respond(c, sess)
}

// SetSearchTerm handles PUT /api/v1/sessions/:id/filters/search
func (h *SessionHandler) SetSearchTerm(c *gin.Context) {
	var req models.SearchRequest
	sess, ok := h.bind(c, &req)
	if !ok {
		return
	}
	if _, err := sess.Map.SetSearchTerm(req.Term); err != nil {
		respondError(c, "Failed to set search term", err)
		return
	}
	h.respond(c, sess)
}

// ClearFilters handles DELETE /api/v1/sessions/:id/filters
func (h *SessionHandler) ClearFilters(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if _, err := sess.Map.ClearAll(c.Request.Context()); errors.Is(err, mapview.ErrClosed) {
		respondError(c, "Failed to clear filters", err)
		return
	}
	h.respond(c, sess)
}

// Recenter handles POST /api/v1/sessions/:id/recenter
func (h *SessionHandler) Recenter(c *gin.Context) {
	var req models.RecenterRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body", err)
			return
		}
	}
	sess, err := h.service.Recenter(c.Request.Context(), c.Param("id"), userID(c), req)
	if err != nil {
		respondError(c, "Failed to recenter", err)
		return
	}
	h.respond(c, sess)
}

// SetMode handles PUT /api/v1/sessions/:id/mode
func (h *SessionHandler) SetMode(c *gin.Context) {
	var req models.ModeRequest
	sess, ok := h.bind(c, &req)
	if !ok {
		return
	}
	if err := sess.Map.SetMode(mapview.Mode(req.Mode)); err != nil {
		respondError(c, "Failed to set mode", err)
		return
	}
	h.respond(c, sess)
}

// SetHeatmapQuery handles PUT /api/v1/sessions/:id/heatmap
func (h *SessionHandler) SetHeatmapQuery(c *gin.Context) {
	var req models.HeatmapQueryRequest
	sess, ok := h.bind(c, &req)
	if !ok {
		return
	}
	err := sess.Map.SetHeatmapQuery(c.Request.Context(), req.SpeciesID, req.Month)
	if errors.Is(err, mapview.ErrClosed) {
		respondError(c, "Failed to load heatmap", err)
		return
	}
	h.respond(c, sess)
}

// SetZoom handles PUT /api/v1/sessions/:id/zoom
func (h *SessionHandler) SetZoom(c *gin.Context) {
	var req models.ZoomRequest
	sess, ok := h.bind(c, &req)
	if !ok {
		return
	}
	if err := sess.Map.SetZoom(req.Zoom); err != nil {
		respondError(c, "Failed to set zoom", err)
		return
	}
	h.respond(c, sess)
}

// DispatchEvent handles POST /api/v1/sessions/:id/events
func (h *SessionHandler) DispatchEvent(c *gin.Context) {
	var req mapview.Event
	sess, ok := h.bind(c, &req)
	if !ok {
		return
	}
	if err := sess.Map.Dispatch(req); err != nil {
		respondError(c, "Failed to dispatch event", err)
		return
	}
	h.respond(c, sess)
}

// ArmPicker handles POST /api/v1/sessions/:id/picker
func (h *SessionHandler) ArmPicker(c *gin.Context) {
	var req models.Destination
	sess, ok := h.bind(c, &req)
	if !ok {
		return
	}
	if err := sess.Map.ArmPicker(req); err != nil {
		respondError(c, "Failed to enter selection mode", err)
		return
	}
	h.respond(c, sess)
}

// ConfirmPicker handles POST /api/v1/sessions/:id/picker/confirm
func (h *SessionHandler) ConfirmPicker(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	nav, err := sess.Map.ConfirmPicker()
	if err != nil {
		respondError(c, "Failed to confirm selection", err)
		return
	}
	response.Success(c, nav)
}

// CancelPicker handles POST /api/v1/sessions/:id/picker/cancel
func (h *SessionHandler) CancelPicker(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	nav, err := sess.Map.CancelPicker()
	if err != nil {
		respondError(c, "Failed to cancel selection", err)
		return
	}
	response.Success(c, nav)
}

func (h *SessionHandler) session(c *gin.Context) (*session.Session, bool) {
	sess, err := h.service.Get(c.Param("id"), userID(c))
	if err != nil {
		respondError(c, "Session not found", err)
		return nil, false
	}
	return sess, true
}

func (h *SessionHandler) bind(c *gin.Context, req interface{}) (*session.Session, bool) {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return nil, false
	}
	return h.session(c)
}

func (h *SessionHandler) respond(c *gin.Context, sess *session.Session) {
	response.Success(c, sessionView{ID: sess.ID, View: sess.Map.View()})
}
