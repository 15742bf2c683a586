package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
)

// ActivityHandler serves commits, the heatmap summary and consistency stats.
// Day based views take optional date and tz query parameters; without tz the
// handler's default zone is used.
type ActivityHandler struct {
	svc *services.ActivityService
	loc *time.Location
	now func() time.Time
}

func NewActivityHandler(svc *services.ActivityService, defaultLoc *time.Location) *ActivityHandler {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &ActivityHandler{svc: svc, loc: defaultLoc, now: time.Now}
}

type recordActivityRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *ActivityHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/activity", h.Record)
	router.GET("/activity/summary", h.Summary)
	router.GET("/stats", h.Stats)
}

// Record godoc
// @Summary Record a commit
// @Tags activity
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} domain.ActivityEvent
// @Router /activity [post]
func (h *ActivityHandler) Record(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req recordActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	event, err := h.svc.RecordActivity(c.Request.Context(), userID, req.Message)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// Summary godoc
// @Summary Yearly heatmap and streaks
// @Tags activity
// @Produce json
// @Security BearerAuth
// @Param date query string false "Local day, YYYY-MM-DD"
// @Param tz query string false "IANA time zone"
// @Success 200 {object} domain.ActivitySummary
// @Router /activity/summary [get]
func (h *ActivityHandler) Summary(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	today, loc, ok := resolveDay(c, h.loc, h.now())
	if !ok {
		return
	}

	summary, err := h.svc.GetActivitySummary(c.Request.Context(), userID, today, loc)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Stats godoc
// @Summary Consistency score, completion counts and weekly trend
// @Tags activity
// @Produce json
// @Security BearerAuth
// @Param date query string false "Local day, YYYY-MM-DD"
// @Param tz query string false "IANA time zone"
// @Success 200 {object} domain.ConsistencyStats
// @Router /stats [get]
func (h *ActivityHandler) Stats(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	today, loc, ok := resolveDay(c, h.loc, h.now())
	if !ok {
		return
	}

	stats, err := h.svc.GetConsistencyStats(c.Request.Context(), userID, today, loc)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
