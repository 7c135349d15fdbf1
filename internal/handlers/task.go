package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/collab-api/internal/dto"
	apierrors "github.com/yukikurage/collab-api/internal/errors"
	"github.com/yukikurage/collab-api/internal/middleware"
	"github.com/yukikurage/collab-api/internal/models"
	"github.com/yukikurage/collab-api/internal/services"
	"github.com/yukikurage/collab-api/internal/utils"
)

type TaskHandler struct {
	tasks *services.TaskService
}

func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func (h *TaskHandler) now() time.Time {
	return h.tasks.Now()
}

// ListTasks returns a page of the project's tasks.
// Supports status (TO_DO, IN_PROGRESS, DONE or OVERDUE), assigned_to_me and
// overdue query filters.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	input := services.ListTasksInput{
		ProjectID: middleware.GetIDParam(c, "id"),
		UserID:    userID,
		Page:      params.Page,
		PageSize:  params.Limit,
	}

	if status := c.Query("status"); status != "" {
		s := models.TaskStatus(status)
		input.Status = &s
	}

	var err error
	if input.AssignedToMe, err = queryBool(c, "assigned_to_me"); err != nil {
		apierrors.BadRequest(c, "Invalid assigned_to_me")
		return
	}
	if input.Overdue, err = queryBool(c, "overdue"); err != nil {
		apierrors.BadRequest(c, "Invalid overdue")
		return
	}

	tasks, total, err := h.tasks.ListTasks(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total, h.now()))
}

func queryBool(c *gin.Context, key string) (bool, error) {
	value := c.Query(key)
	if value == "" {
		return false, nil
	}
	return strconv.ParseBool(value)
}

// CreateTask creates a task in the project
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Title       string     `json:"title" binding:"required,max=255"`
		Description string     `json:"description"`
		DueDate     *time.Time `json:"due_date"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), services.CreateTaskInput{
		ProjectID:   middleware.GetIDParam(c, "id"),
		OwnerID:     userID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task, h.now()))
}

// GenerateTasks drafts tasks from free text using AI. Nothing is saved.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	generated, err := h.tasks.GenerateTasks(c.Request.Context(), services.GenerateTasksInput{
		ProjectID: middleware.GetIDParam(c, "id"),
		UserID:    userID,
		Text:      req.Text,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]dto.GeneratedTaskDTO, len(generated))
	for i, t := range generated {
		items[i] = dto.GeneratedTaskDTO{Title: t.Title, Description: t.Description, DueDate: t.DueDate}
	}

	c.JSON(http.StatusOK, gin.H{"tasks": items})
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c.Request.Context(), middleware.GetIDParam(c, "id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, h.now()))
}

// UpdateTask updates an existing task. clear_due_date removes the due date.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title        *string    `json:"title" binding:"omitempty,max=255"`
		Description  *string    `json:"description"`
		DueDate      *time.Time `json:"due_date"`
		ClearDueDate bool       `json:"clear_due_date"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), middleware.GetIDParam(c, "id"), userID, services.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate,
		ClearDueDate: req.ClearDueDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, h.now()))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(c.Request.Context(), middleware.GetIDParam(c, "id"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ChangeStatus moves a task to a new status
func (h *TaskHandler) ChangeStatus(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	type ChangeStatusRequest struct {
		Status  models.TaskStatus `json:"status" binding:"required"`
		Comment *string           `json:"comment"`
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.tasks.ChangeStatus(c.Request.Context(), services.ChangeStatusInput{
		TaskID:  middleware.GetIDParam(c, "id"),
		UserID:  userID,
		Status:  req.Status,
		Comment: req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, h.now()))
}

// AssignTask assigns project members to a task
func (h *TaskHandler) AssignTask(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	type Assignment struct {
		UserID uint64          `json:"user_id" binding:"required"`
		Role   models.TaskRole `json:"role"`
	}
	type AssignRequest struct {
		Assignments []Assignment `json:"assignments" binding:"required,dive"`
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	assignments := make([]services.AssignmentInput, len(req.Assignments))
	for i, a := range req.Assignments {
		assignments[i] = services.AssignmentInput{UserID: a.UserID, Role: a.Role}
	}

	task, err := h.tasks.AssignUsers(c.Request.Context(), services.AssignUsersInput{
		TaskID:      middleware.GetIDParam(c, "id"),
		ActorID:     userID,
		Assignments: assignments,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, h.now()))
}

// UnassignTask removes user assignments from a task
func (h *TaskHandler) UnassignTask(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	type UnassignRequest struct {
		UserIDs []uint64 `json:"user_ids" binding:"required"`
	}

	var req UnassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.tasks.UnassignUsers(c.Request.Context(), middleware.GetIDParam(c, "id"), userID, req.UserIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, h.now()))
}
