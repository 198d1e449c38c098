package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager/internal/dto"
	apierrors "github.com/yukikurage/task-manager/internal/errors"
	"github.com/yukikurage/task-manager/internal/models"
	"github.com/yukikurage/task-manager/internal/services"
	"github.com/yukikurage/task-manager/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns one page of tasks
func (h *TaskHandler) ListTasks(c *gin.Context) {
	params, err := utils.GetPaginationParams(c)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	page, err := h.taskService.ListTasks(c.Request.Context(), services.ListTasksInput{
		Page:     params.Page,
		PageSize: params.Limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(page.Tasks, page.Page, page.PageSize, page.TotalCount, page.TotalPages))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.taskService.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		Title       string  `json:"title" binding:"required"`
		Description string  `json:"description" binding:"required"`
		DueDate     string  `json:"dueDate" binding:"required"`
		Priority    string  `json:"priority"`
		Status      string  `json:"status"`
		AssignedTo  *string `json:"assignedTo" binding:"omitempty,objectid"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	dueDate, err := services.ParseDueDate(req.DueDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     &dueDate,
		Priority:    models.TaskPriority(req.Priority),
		Status:      models.TaskStatus(req.Status),
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask updates only the fields present in the request body.
// assignedTo may be null or "" to unassign the task.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	// Parse raw JSON to detect which fields were sent
	var rawReq map[string]json.RawMessage
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := parseUpdateInput(rawReq)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.taskService.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Message: "Task deleted successfully",
	})
}

func parseUpdateInput(raw map[string]json.RawMessage) (services.UpdateTaskInput, error) {
	var input services.UpdateTaskInput

	var err error
	if input.Title, err = stringField(raw, "title"); err != nil {
		return input, err
	}
	if input.Description, err = stringField(raw, "description"); err != nil {
		return input, err
	}

	dueDate, err := stringField(raw, "dueDate")
	if err != nil {
		return input, err
	}
	if dueDate != nil {
		parsed, err := services.ParseDueDate(*dueDate)
		if err != nil {
			return input, err
		}
		input.DueDate = &parsed
	}

	priority, err := stringField(raw, "priority")
	if err != nil {
		return input, err
	}
	if priority != nil {
		p := models.TaskPriority(*priority)
		input.Priority = &p
	}

	status, err := stringField(raw, "status")
	if err != nil {
		return input, err
	}
	if status != nil {
		s := models.TaskStatus(*status)
		input.Status = &s
	}

	if value, ok := raw["assignedTo"]; ok {
		if isNull(value) {
			input.ClearAssignee = true
		} else {
			var assignedTo string
			if err := json.Unmarshal(value, &assignedTo); err != nil {
				return input, &services.ValidationError{Field: "assignedTo", Message: "must be a string or null"}
			}
			if assignedTo == "" {
				input.ClearAssignee = true
			} else {
				input.AssignedTo = &assignedTo
			}
		}
	}

	return input, nil
}

// stringField returns nil when key is absent. A present null is rejected
// because none of the string fields can be cleared.
func stringField(raw map[string]json.RawMessage, key string) (*string, error) {
	value, ok := raw[key]
	if !ok {
		return nil, nil
	}
	if isNull(value) {
		return nil, &services.ValidationError{Field: key, Message: "cannot be null"}
	}

	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return nil, &services.ValidationError{Field: key, Message: "must be a string"}
	}
	return &s, nil
}

func isNull(value json.RawMessage) bool {
	return len(value) == 0 || string(value) == "null"
}
