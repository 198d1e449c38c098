package client

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yukikurage/task-manager/internal/dto"
)

// ErrSubmitInFlight is returned by Submit while an earlier Submit on the same
// form has not finished.
var ErrSubmitInFlight = errors.New("task form submission already in flight")

// FieldError is a form value rejected before anything is sent.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Message
}

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Priority    string `json:"priority,omitempty"`
	Status      string `json:"status,omitempty"`
	AssignedTo  string `json:"assignedTo,omitempty"`
}

// TaskPatch is a partial update. Nil fields are not sent; Unassign sends
// assignedTo as null.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *string
	Priority    *string
	Status      *string
	AssignedTo  *string
	Unassign    bool
}

// Body returns the JSON object for the patch.
func (p TaskPatch) Body() map[string]interface{} {
	body := make(map[string]interface{})
	set := func(key string, value *string) {
		if value != nil {
			body[key] = *value
		}
	}
	set("title", p.Title)
	set("description", p.Description)
	set("dueDate", p.DueDate)
	set("priority", p.Priority)
	set("status", p.Status)
	if p.Unassign {
		body["assignedTo"] = nil
	} else {
		set("assignedTo", p.AssignedTo)
	}
	return body
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return len(p.Body()) == 0
}

// TaskFields are the editable values of a task form.
type TaskFields struct {
	Title       string
	Description string
	DueDate     string
	Priority    string
	Status      string
	AssignedTo  string
}

// TaskForm produces create or update requests from form fields. Only one
// submission may be in flight at a time.
type TaskForm struct {
	api      *Client
	taskID   string
	original TaskFields
	Fields   TaskFields

	submitting atomic.Bool
}

// NewCreateForm returns an empty form that creates a task on Submit.
func NewCreateForm(api *Client) *TaskForm {
	return &TaskForm{api: api}
}

// NewEditForm returns a form pre-filled from task that sends only the
// changed fields on Submit.
func NewEditForm(api *Client, task dto.TaskDTO) *TaskForm {
	fields := TaskFields{
		Title:       task.Title,
		Description: task.Description,
		DueDate:     formatDueDate(task.DueDate),
		Priority:    string(task.Priority),
		Status:      string(task.Status),
	}
	if task.AssignedTo != nil {
		fields.AssignedTo = task.AssignedTo.ID
	}
	return &TaskForm{
		api:      api,
		taskID:   task.ID,
		original: fields,
		Fields:   fields,
	}
}

// Submitting reports whether a submission is in flight.
func (f *TaskForm) Submitting() bool {
	return f.submitting.Load()
}

// Submit sends the form. A concurrent second call fails with
// ErrSubmitInFlight without sending anything.
func (f *TaskForm) Submit(ctx context.Context) (*dto.TaskDTO, error) {
	if !f.submitting.CompareAndSwap(false, true) {
		return nil, ErrSubmitInFlight
	}
	defer f.submitting.Store(false)

	if err := f.validate(); err != nil {
		return nil, err
	}

	if f.taskID == "" {
		return f.api.CreateTask(ctx, CreateTaskRequest{
			Title:       strings.TrimSpace(f.Fields.Title),
			Description: f.Fields.Description,
			DueDate:     strings.TrimSpace(f.Fields.DueDate),
			Priority:    f.Fields.Priority,
			Status:      f.Fields.Status,
			AssignedTo:  strings.TrimSpace(f.Fields.AssignedTo),
		})
	}

	task, err := f.api.UpdateTask(ctx, f.taskID, f.Patch())
	if err != nil {
		return nil, err
	}
	f.original = f.Fields
	return task, nil
}

// Patch returns the fields that differ from the task the form was opened with.
func (f *TaskForm) Patch() TaskPatch {
	var patch TaskPatch
	changed := func(current, original string) *string {
		if current == original {
			return nil
		}
		value := current
		return &value
	}
	patch.Title = changed(strings.TrimSpace(f.Fields.Title), f.original.Title)
	patch.Description = changed(f.Fields.Description, f.original.Description)
	patch.DueDate = changed(strings.TrimSpace(f.Fields.DueDate), f.original.DueDate)
	patch.Priority = changed(f.Fields.Priority, f.original.Priority)
	patch.Status = changed(f.Fields.Status, f.original.Status)

	assignee := strings.TrimSpace(f.Fields.AssignedTo)
	if assignee != f.original.AssignedTo {
		if assignee == "" {
			patch.Unassign = true
		} else {
			patch.AssignedTo = &assignee
		}
	}
	return patch
}

func (f *TaskForm) validate() error {
	if strings.TrimSpace(f.Fields.Title) == "" {
		return &FieldError{Field: "title", Message: "is required"}
	}
	if strings.TrimSpace(f.Fields.Description) == "" {
		return &FieldError{Field: "description", Message: "is required"}
	}
	if strings.TrimSpace(f.Fields.DueDate) == "" {
		return &FieldError{Field: "dueDate", Message: "is required"}
	}
	return nil
}

func formatDueDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}
