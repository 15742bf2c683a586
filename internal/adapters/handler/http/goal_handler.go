package http

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
)

type GoalHandler struct {
	svc *services.GoalService
}

func NewGoalHandler(svc *services.GoalService) *GoalHandler {
	return &GoalHandler{svc: svc}
}

type createGoalRequest struct {
	Title           string   `json:"title" binding:"required"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	StartDate       *string  `json:"start_date"`
	TargetDate      *string  `json:"target_date"`
	ReminderEnabled bool     `json:"reminder_enabled"`
	Milestones      []string `json:"milestones"`
}

type milestoneRequest struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type updateProgressRequest struct {
	Progress   *int               `json:"progress"`
	Milestones []milestoneRequest `json:"milestones"`
	LogText    *string            `json:"log_text"`
}

// goalResponse adds the milestone-derived progress hint to a goal.
type goalResponse struct {
	*domain.Goal
	SuggestedProgress int `json:"suggested_progress"`
}

func newGoalResponse(g *domain.Goal) goalResponse {
	return goalResponse{Goal: g, SuggestedProgress: domain.SuggestedProgress(g.Milestones)}
}

func newGoalResponses(goals []*domain.Goal) []goalResponse {
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, newGoalResponse(g))
	}
	return out
}

type archiveGoalRequest struct {
	Learning string `json:"learning"`
}

type planRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (h *GoalHandler) RegisterRoutes(router *gin.RouterGroup) {
	goals := router.Group("/goals")
	{
		goals.POST("", h.Create)
		goals.GET("", h.List)
		goals.GET("/archived", h.ListArchived)
		goals.GET("/export", h.Export)
		goals.POST("/plan", h.Plan)
		goals.GET("/:id", h.Get)
		goals.DELETE("/:id", h.Delete)
		goals.PUT("/:id/progress", h.UpdateProgress)
		goals.POST("/:id/archive", h.Archive)
	}
}

// Create godoc
// @Summary Create a goal
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} domain.Goal
// @Router /goals [post]
func (h *GoalHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req createGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		badRequest(c, "invalid start_date, expected RFC3339 or YYYY-MM-DD")
		return
	}
	target, err := parseOptionalDate(req.TargetDate)
	if err != nil {
		badRequest(c, "invalid target_date, expected RFC3339 or YYYY-MM-DD")
		return
	}

	goal, err := h.svc.Create(c.Request.Context(), services.CreateGoalInput{
		UserID:          userID,
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		StartDate:       start,
		TargetDate:      target,
		ReminderEnabled: req.ReminderEnabled,
		Milestones:      req.Milestones,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newGoalResponse(goal))
}

// List godoc
// @Summary List active goals, newest first
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Goal
// @Router /goals [get]
func (h *GoalHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	list, err := h.svc.ListByUserID(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGoalResponses(list))
}

func (h *GoalHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	goal, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGoalResponse(goal))
}

// UpdateProgress godoc
// @Summary Update goal progress, milestones and log
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 200 {object} domain.Goal
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /goals/{id}/progress [put]
func (h *GoalHandler) UpdateProgress(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req updateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	var milestones []domain.MilestoneInput
	if req.Milestones != nil {
		milestones = make([]domain.MilestoneInput, 0, len(req.Milestones))
		for _, m := range req.Milestones {
			milestones = append(milestones, domain.MilestoneInput{ID: m.ID, Title: m.Title, Completed: m.Completed})
		}
	}

	goal, err := h.svc.UpdateProgress(c.Request.Context(), services.UpdateProgressInput{
		GoalID:     c.Param("id"),
		UserID:     userID,
		Progress:   req.Progress,
		Milestones: milestones,
		LogText:    req.LogText,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGoalResponse(goal))
}

// Archive godoc
// @Summary Archive a goal with a learning note
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 201 {object} domain.ArchiveRecord
// @Router /goals/{id}/archive [post]
func (h *GoalHandler) Archive(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req archiveGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	rec, err := h.svc.Archive(c.Request.Context(), services.ArchiveGoalInput{
		GoalID:   c.Param("id"),
		UserID:   userID,
		Learning: req.Learning,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rec)
}

func (h *GoalHandler) ListArchived(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	list, err := h.svc.ListArchived(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *GoalHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Export godoc
// @Summary Export goals and tasks as CSV
// @Tags goals
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {string} string
// @Failure 404 {object} map[string]string
// @Router /goals/export [get]
func (h *GoalHandler) Export(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Export(c.Request.Context(), userID, &buf); err != nil {
		handleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="goals.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *GoalHandler) Plan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	plan, err := h.svc.SuggestMilestones(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestones": plan})
}
