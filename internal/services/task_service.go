package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/yukikurage/task-manager/internal/constants"
	"github.com/yukikurage/task-manager/internal/models"
	"github.com/yukikurage/task-manager/internal/repository"
)

const dateLayout = "2006-01-02"

// TaskService handles task business logic
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
	}
}

// ListTasksInput represents pagination options for listing tasks
type ListTasksInput struct {
	Page     int
	PageSize int
}

// TaskPage is one page of tasks plus the totals needed to render pagers.
type TaskPage struct {
	Tasks      []models.Task
	Page       int
	PageSize   int
	TotalCount int64
	TotalPages int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    models.TaskPriority
	Status      models.TaskStatus
	AssignedTo  *string
}

// UpdateTaskInput represents input for updating a task. Nil fields are left
// untouched; ClearAssignee unassigns the task.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	DueDate       *time.Time
	Priority      *models.TaskPriority
	Status        *models.TaskStatus
	AssignedTo    *string
	ClearAssignee bool
}

// ParseDueDate accepts an RFC 3339 timestamp or a YYYY-MM-DD date.
func ParseDueDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, newValidationError("dueDate", "is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	return time.Time{}, newValidationError("dueDate", "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
}

// ListTasks returns one page of tasks in insertion order
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) (*TaskPage, error) {
	page := input.Page
	if page < constants.DefaultPage {
		page = constants.DefaultPage
	}
	pageSize := input.PageSize
	if pageSize < constants.MinPageSize {
		pageSize = constants.DefaultPageSize
	}
	if pageSize > constants.MaxPageSize {
		pageSize = constants.MaxPageSize
	}
	if page-1 > math.MaxInt/pageSize {
		return nil, newValidationError("page", "is too large")
	}

	tasks, total, err := s.taskRepo.List(ctx, repository.TaskFilter{
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, storeError("list tasks", err)
	}

	return &TaskPage{
		Tasks:      tasks,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// GetTask returns a task with its assignee
func (s *TaskService) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	if !models.IsValidID(taskID) {
		return nil, &NotFoundError{Resource: "task", ID: taskID}
	}

	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "task", ID: taskID}
		}
		return nil, storeError("find task", err)
	}

	return task, nil
}

// CreateTask validates and stores a new task
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, newValidationError("title", "is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, newValidationError("description", "is required")
	}
	if input.DueDate == nil || input.DueDate.IsZero() {
		return nil, newValidationError("dueDate", "is required")
	}

	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, newValidationError("priority", "must be one of low, medium, high")
	}
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !input.Status.Valid() {
		return nil, newValidationError("status", "must be one of To Do, In Progress, Completed")
	}

	var assignedTo *string
	if input.AssignedTo != nil && *input.AssignedTo != "" {
		if err := s.ensureAssignee(ctx, *input.AssignedTo); err != nil {
			return nil, err
		}
		assignedTo = input.AssignedTo
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		DueDate:     *input.DueDate,
		Priority:    input.Priority,
		Status:      input.Status,
		AssignedTo:  assignedTo,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, storeError("create task", err)
	}

	return s.GetTask(ctx, task.ID)
}

// UpdateTask applies the provided fields to an existing task. The stored
// task is left untouched when any field is rejected.
func (s *TaskService) UpdateTask(ctx context.Context, taskID string, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, newValidationError("title", "cannot be empty")
		}
		task.Title = title
	}
	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return nil, newValidationError("description", "cannot be empty")
		}
		task.Description = *input.Description
	}
	if input.DueDate != nil {
		if input.DueDate.IsZero() {
			return nil, newValidationError("dueDate", "cannot be empty")
		}
		task.DueDate = *input.DueDate
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, newValidationError("priority", "must be one of low, medium, high")
		}
		task.Priority = *input.Priority
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, newValidationError("status", "must be one of To Do, In Progress, Completed")
		}
		task.Status = *input.Status
	}
	if input.ClearAssignee {
		task.AssignedTo = nil
		task.Assignee = nil
	} else if input.AssignedTo != nil {
		if err := s.ensureAssignee(ctx, *input.AssignedTo); err != nil {
			return nil, err
		}
		assignee := *input.AssignedTo
		task.AssignedTo = &assignee
		task.Assignee = nil
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "task", ID: taskID}
		}
		return nil, storeError("update task", err)
	}

	return s.GetTask(ctx, taskID)
}

// DeleteTask permanently removes a task
func (s *TaskService) DeleteTask(ctx context.Context, taskID string) error {
	if !models.IsValidID(taskID) {
		return &NotFoundError{Resource: "task", ID: taskID}
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Resource: "task", ID: taskID}
		}
		return storeError("delete task", err)
	}

	return nil
}

// ensureAssignee verifies that userID is well formed and names an existing user
func (s *TaskService) ensureAssignee(ctx context.Context, userID string) error {
	if !models.IsValidID(userID) {
		return newValidationError("assignedTo", "invalid assignedTo ID")
	}

	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newValidationError("assignedTo", "assigned user not found")
		}
		return storeError("verify assigned user", err)
	}
	return nil
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		pages++
	}
	return pages
}
