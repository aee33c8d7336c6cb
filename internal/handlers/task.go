package handlers

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskboard/taskboard-api/internal/apperrors"
	"github.com/taskboard/taskboard-api/internal/dto"
	"github.com/taskboard/taskboard-api/internal/middleware"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/services"
	"github.com/taskboard/taskboard-api/internal/utils"
)

// TaskHandler coordinates task-related HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the caller's tasks with optional filters.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)

	input := services.ListTasksInput{
		Search:   c.Query("search"),
		Page:     params.Page,
		PageSize: params.Limit,
	}
	if status := c.Query("status"); status != "" {
		s := models.TaskStatus(status)
		input.Status = &s
	}
	if priority := c.Query("priority"); priority != "" {
		p := models.TaskPriority(priority)
		input.Priority = &p
	}

	tasks, total, err := h.taskService.List(user.ID, input)
	if err != nil {
		apperrors.RespondError(c, err)
		return
	}

	respondPage(c, "Tasks retrieved successfully", params, total, dto.ToTaskDTOs(tasks))
}

// CreateTask creates a task owned by the caller.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	type CreateRequest struct {
		Title       string     `json:"title" binding:"required"`
		Description string     `json:"description"`
		Status      string     `json:"status"`
		Priority    string     `json:"priority"`
		DueDate     *time.Time `json:"due_date"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.Create(user, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		Priority:    models.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
	}, middleware.ClientIP(c))
	if err != nil {
		apperrors.RespondError(c, err)
		return
	}

	respondCreated(c, "Task created successfully", dto.ToTaskDTO(*task))
}

// GetTask returns a single task.
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}

	respondOK(c, "Task retrieved successfully", dto.ToTaskDTO(*task))
}

// ReplaceTask handles PUT: every mutable field is set from the request,
// and an omitted due date clears the stored one.
func (h *TaskHandler) ReplaceTask(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)

	type ReplaceRequest struct {
		Title       string     `json:"title" binding:"required"`
		Description string     `json:"description"`
		Status      string     `json:"status"`
		Priority    string     `json:"priority"`
		DueDate     *time.Time `json:"due_date"`
	}

	var req ReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	status := models.TaskStatus(req.Status)
	if req.Status == "" {
		status = models.TaskStatusTodo
	}
	priority := models.TaskPriority(req.Priority)
	if req.Priority == "" {
		priority = models.TaskPriorityMedium
	}

	input := services.UpdateTaskInput{
		Title:        &req.Title,
		Description:  &req.Description,
		Status:       &status,
		Priority:     &priority,
		DueDate:      req.DueDate,
		ClearDueDate: req.DueDate == nil,
	}

	updated, err := h.taskService.Update(task, input, user, middleware.ClientIP(c))
	if err != nil {
		apperrors.RespondError(c, err)
		return
	}

	respondOK(c, "Task updated successfully", dto.ToTaskDTO(*updated))
}

// UpdateTask handles PATCH: only fields present in the payload are applied.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)

	type PatchRequest struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Status      *string    `json:"status"`
		Priority    *string    `json:"priority"`
		DueDate     *time.Time `json:"due_date"`
	}

	// An explicit "due_date": null clears the stored date, while an
	// omitted field leaves it alone. The struct decode collapses both to
	// nil, so key presence is checked against the raw payload.
	raw, err := c.GetRawData()
	if err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	var req PatchRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}
	_, dueDatePresent := keys["due_date"]

	input := services.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate,
		ClearDueDate: dueDatePresent && req.DueDate == nil,
	}
	if req.Status != nil {
		s := models.TaskStatus(*req.Status)
		input.Status = &s
	}
	if req.Priority != nil {
		p := models.TaskPriority(*req.Priority)
		input.Priority = &p
	}

	updated, err := h.taskService.Update(task, input, user, middleware.ClientIP(c))
	if err != nil {
		apperrors.RespondError(c, err)
		return
	}

	respondOK(c, "Task updated successfully", dto.ToTaskDTO(*updated))
}

// DeleteTask removes a task.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)

	if !h.taskService.CanDelete(user, task) {
		apperrors.NotFound(c, "Task not found")
		return
	}

	if err := h.taskService.Delete(task, user, middleware.ClientIP(c)); err != nil {
		apperrors.RespondError(c, err)
		return
	}

	respondOK(c, "Task deleted successfully", nil)
}

// ownedTask loads the task in the :id parameter and authorizes the caller
// via CanEdit. Foreign tasks answer 404, not 403, so task IDs are not
// probeable.
func (h *TaskHandler) ownedTask(c *gin.Context) (*models.Task, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid task ID")
		return nil, false
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return nil, false
	}

	task, err := h.taskService.Get(id)
	if err != nil {
		apperrors.RespondError(c, err)
		return nil, false
	}

	if !h.taskService.CanEdit(user, task) {
		apperrors.NotFound(c, "Task not found")
		return nil, false
	}

	return task, true
}
