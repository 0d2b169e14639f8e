// Package monitoring exposes a thin HTTP surface over the uptime-monitoring
// engine: check history, current incident, daily uptime summaries, and an
// on-demand check trigger. Mutating monitor configuration is out of scope here —
// monitors are reloaded wholesale via Engine.Reload, not edited per-field
// through this API.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/statusbeacon/engine/internal/api/handlers"
	"github.com/statusbeacon/engine/internal/monitoring/engine"
)

// Handler serves monitoring endpoints backed by one Engine.
type Handler struct {
	engine *engine.Engine
}

func NewHandler(e *engine.Engine) *Handler {
	return &Handler{engine: e}
}

// RegisterRoutes mounts the monitoring endpoints under the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/monitors/:id/checks", h.RecentChecks)
	group.GET("/monitors/:id/incident", h.ActiveIncident)
	group.GET("/monitors/:id/history", h.History)
	group.POST("/monitors/:id/trigger", h.TriggerCheck)
}

func (h *Handler) monitorID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		handlers.RespondBadRequest(c, err)
		return 0, false
	}
	return uint(id), true
}

// RecentChecks returns the most recent checks for a monitor.
// GET /monitors/:id/checks?limit=20
func (h *Handler) RecentChecks(c *gin.Context) {
	monitorID, ok := h.monitorID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	checks, err := h.engine.RecentChecks(c.Request.Context(), monitorID, limit)
	if err != nil {
		handlers.RespondInternalError(c, err)
		return
	}
	handlers.RespondSuccess(c, checks)
}

// ActiveIncident returns the open incident for a monitor, or null.
// GET /monitors/:id/incident
func (h *Handler) ActiveIncident(c *gin.Context) {
	monitorID, ok := h.monitorID(c)
	if !ok {
		return
	}

	incident, err := h.engine.ActiveIncident(c.Request.Context(), monitorID)
	if err != nil {
		handlers.RespondInternalError(c, err)
		return
	}
	handlers.RespondSuccess(c, incident)
}

// History returns the uptime summary for a monitor on a given day.
// GET /monitors/:id/history?date=2026-07-29
func (h *Handler) History(c *gin.Context) {
	monitorID, ok := h.monitorID(c)
	if !ok {
		return
	}

	day := time.Now().UTC()
	if dateParam := c.Query("date"); dateParam != "" {
		parsed, err := time.Parse("2006-01-02", dateParam)
		if err != nil {
			handlers.RespondBadRequest(c, err)
			return
		}
		day = parsed
	}

	summary, err := h.engine.History(c.Request.Context(), monitorID, day)
	if err != nil {
		handlers.RespondInternalError(c, err)
		return
	}
	handlers.RespondSuccess(c, summary)
}

// TriggerCheck runs one monitor immediately, outside its cron schedule.
// POST /monitors/:id/trigger
func (h *Handler) TriggerCheck(c *gin.Context) {
	monitorID, ok := h.monitorID(c)
	if !ok {
		return
	}

	result, err := h.engine.TriggerCheck(c.Request.Context(), monitorID)
	if err != nil {
		handlers.RespondError(c, http.StatusNotFound, err)
		return
	}
	handlers.RespondSuccess(c, result)
}
