package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskboard/taskboard-api/internal/apperrors"
	"github.com/taskboard/taskboard-api/internal/constants"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrTaskNotFound = apperrors.New(apperrors.KindNotFound, "Task not found")

// TaskService owns task CRUD logic, ownership checks, and filtering.
// Successful mutations commit with their audit entry in one transaction;
// caught failures are audited before propagating.
type TaskService struct {
	taskRepo repository.TaskRepository
	audit    *AuditService
	logger   *zap.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, audit *AuditService, logger *zap.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		audit:    audit,
		logger:   logger,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
}

// UpdateTaskInput represents a partial update; nil fields are left untouched.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status   *models.TaskStatus
	Priority *models.TaskPriority
	Search   string
	Page     int
	PageSize int
}

// Create validates the input and creates a task owned by owner. The owner
// comes from the authenticated session, never from client input.
func (s *TaskService) Create(owner *models.User, input CreateTaskInput, ip string) (*models.Task, error) {
	fields := map[string]string{}

	title := strings.TrimSpace(input.Title)
	if len(title) < constants.MinTitleLength {
		fields["title"] = fmt.Sprintf("Title must be at least %d characters long.", constants.MinTitleLength)
	}

	status := input.Status
	if status == "" {
		status = models.TaskStatusTodo
	} else if !status.Valid() {
		fields["status"] = "Status must be one of: TODO, IN_PROGRESS, DONE"
	}

	priority := input.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	} else if !priority.Valid() {
		fields["priority"] = "Priority must be one of: LOW, MEDIUM, HIGH"
	}

	if len(fields) > 0 {
		return nil, apperrors.NewValidation("Validation failed", fields)
	}

	task := &models.Task{
		UserID:      owner.ID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      status,
		Priority:    priority,
		DueDate:     input.DueDate,
	}

	entry := s.audit.Entry(RecordInput{
		User:        owner,
		Action:      models.AuditActionCreate,
		Feature:     "task",
		Description: fmt.Sprintf("Created task: %s", title),
		IPAddress:   ip,
		Status:      models.AuditStatusSuccess,
	})

	if err := s.taskRepo.CreateWithAudit(task, entry); err != nil {
		return nil, s.failTask(owner, fmt.Sprintf("Error creating task: %v", err), ip, err)
	}

	s.audit.Emit(entry)
	return task, nil
}

// Update applies the present fields to the task and records an "old → new"
// transition per changed field in the audit description. The save runs even
// when nothing changed, so updated_at is always refreshed and the request
// leaves a trail. Ownership is not re-validated here; callers authorize via
// CanEdit first.
func (s *TaskService) Update(task *models.Task, input UpdateTaskInput, actor *models.User, ip string) (*models.Task, error) {
	fields := map[string]string{}
	var changes []string

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if len(title) < constants.MinTitleLength {
			fields["title"] = fmt.Sprintf("Title must be at least %d characters long.", constants.MinTitleLength)
		} else if title != task.Title {
			changes = append(changes, fmt.Sprintf("title: %s → %s", task.Title, title))
			task.Title = title
		}
	}

	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description != task.Description {
			changes = append(changes, fmt.Sprintf("description: %s → %s", task.Description, description))
			task.Description = description
		}
	}

	if input.Status != nil {
		if !input.Status.Valid() {
			fields["status"] = "Status must be one of: TODO, IN_PROGRESS, DONE"
		} else if *input.Status != task.Status {
			changes = append(changes, fmt.Sprintf("status: %s → %s", task.Status, *input.Status))
			task.Status = *input.Status
		}
	}

	if input.Priority != nil {
		if !input.Priority.Valid() {
			fields["priority"] = "Priority must be one of: LOW, MEDIUM, HIGH"
		} else if *input.Priority != task.Priority {
			changes = append(changes, fmt.Sprintf("priority: %s → %s", task.Priority, *input.Priority))
			task.Priority = *input.Priority
		}
	}

	if input.ClearDueDate {
		if task.DueDate != nil {
			changes = append(changes, fmt.Sprintf("due_date: %s → none", task.DueDate.Format(time.RFC3339)))
			task.DueDate = nil
		}
	} else if input.DueDate != nil {
		if task.DueDate == nil || !task.DueDate.Equal(*input.DueDate) {
			old := "none"
			if task.DueDate != nil {
				old = task.DueDate.Format(time.RFC3339)
			}
			changes = append(changes, fmt.Sprintf("due_date: %s → %s", old, input.DueDate.Format(time.RFC3339)))
			task.DueDate = input.DueDate
		}
	}

	if len(fields) > 0 {
		return nil, apperrors.NewValidation("Validation failed", fields)
	}

	changeDescription := "No changes"
	if len(changes) > 0 {
		changeDescription = strings.Join(changes, ", ")
	}

	entry := s.audit.Entry(RecordInput{
		User:        actor,
		Action:      models.AuditActionUpdate,
		Feature:     "task",
		Description: fmt.Sprintf("Updated task '%s': %s", task.Title, changeDescription),
		IPAddress:   ip,
		Status:      models.AuditStatusSuccess,
	})

	if err := s.taskRepo.UpdateWithAudit(task, entry); err != nil {
		return nil, s.failTask(actor, fmt.Sprintf("Error updating task: %v", err), ip, err)
	}

	s.audit.Emit(entry)
	return task, nil
}

// Delete removes the task. The audit entry is written before the row is
// deleted, inside the same transaction, so the title stays on record.
func (s *TaskService) Delete(task *models.Task, actor *models.User, ip string) error {
	entry := s.audit.Entry(RecordInput{
		User:        actor,
		Action:      models.AuditActionDelete,
		Feature:     "task",
		Description: fmt.Sprintf("Deleted task: %s", task.Title),
		IPAddress:   ip,
		Status:      models.AuditStatusSuccess,
	})

	if err := s.taskRepo.DeleteWithAudit(task.ID, entry); err != nil {
		return s.failTask(actor, fmt.Sprintf("Error deleting task: %v", err), ip, err)
	}

	s.audit.Emit(entry)
	return nil
}

// List returns the owner's tasks, newest first, with optional filters.
func (s *TaskService) List(ownerID uint64, input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		UserID:   ownerID,
		Status:   input.Status,
		Priority: input.Priority,
		Search:   input.Search,
		Page:     input.Page,
		PageSize: input.PageSize,
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, apperrors.NewStorage("failed to list tasks", err)
	}

	return tasks, total, nil
}

// Get returns a task by ID.
func (s *TaskService) Get(id uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, apperrors.NewStorage("failed to find task", err)
	}

	return task, nil
}

// CanEdit reports whether user may modify the task: owner or superuser.
func (s *TaskService) CanEdit(user *models.User, task *models.Task) bool {
	return task.UserID == user.ID || user.IsSuperuser
}

// CanDelete reports whether user may delete the task: owner or superuser.
func (s *TaskService) CanDelete(user *models.User, task *models.Task) bool {
	return task.UserID == user.ID || user.IsSuperuser
}

// failTask audits a failed task operation, then returns the storage error.
func (s *TaskService) failTask(actor *models.User, description, ip string, cause error) error {
	s.logger.Error("task operation failed", zap.String("description", description), zap.Error(cause))

	if _, err := s.audit.Record(RecordInput{
		User:        actor,
		Action:      models.AuditActionError,
		Feature:     "task",
		Description: description,
		IPAddress:   ip,
		Status:      models.AuditStatusFailed,
	}); err != nil {
		return err
	}

	return apperrors.NewStorage("task operation failed", cause)
}
