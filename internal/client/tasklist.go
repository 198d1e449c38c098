package client

import (
	"context"
	"sync"

	"github.com/yukikurage/task-manager/internal/dto"
)

// ListState is the state of a TaskList.
type ListState int

const (
	StateEmpty ListState = iota
	StateLoading
	StatePopulated
	StateError
)

func (s ListState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StatePopulated:
		return "populated"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// TaskListView is a point-in-time copy of a TaskList for rendering.
type TaskListView struct {
	State      ListState
	Tasks      []dto.TaskDTO
	Page       int
	Limit      int
	TotalPages int
	TotalCount int64
	Err        error
}

// TaskList caches the tasks of the current page. Only the response to the
// most recent Load is applied.
type TaskList struct {
	api   *Client
	limit int

	mu         sync.Mutex
	state      ListState
	tasks      []dto.TaskDTO
	page       int
	totalPages int
	totalCount int64
	err        error
	seq        uint64
}

// NewTaskList creates an empty list fetching limit tasks per page.
func NewTaskList(api *Client, limit int) *TaskList {
	return &TaskList{api: api, limit: limit, page: 1}
}

// Load fetches page and replaces the cached tasks.
func (l *TaskList) Load(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}

	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.state = StateLoading
	l.page = page
	l.err = nil
	l.mu.Unlock()

	resp, err := l.api.ListTasks(ctx, page, l.limit)

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		return err
	}
	if err != nil {
		l.state = StateError
		l.err = err
		l.tasks = nil
		return err
	}

	l.tasks = resp.Tasks
	l.page = resp.Page
	l.totalPages = resp.TotalPages
	l.totalCount = resp.TotalCount
	if len(l.tasks) == 0 {
		l.state = StateEmpty
	} else {
		l.state = StatePopulated
	}
	return nil
}

// Reload fetches the current page again.
func (l *TaskList) Reload(ctx context.Context) error {
	return l.Load(ctx, l.View().Page)
}

// Next loads the following page if there is one.
func (l *TaskList) Next(ctx context.Context) error {
	view := l.View()
	if view.Page >= view.TotalPages {
		return nil
	}
	return l.Load(ctx, view.Page+1)
}

// Prev loads the preceding page if there is one.
func (l *TaskList) Prev(ctx context.Context) error {
	view := l.View()
	if view.Page <= 1 {
		return nil
	}
	return l.Load(ctx, view.Page-1)
}

// Delete removes the task on the server, then drops it from the cached page.
// The cached page is untouched when the server refuses.
func (l *TaskList) Delete(ctx context.Context, id string) error {
	if err := l.api.DeleteTask(ctx, id); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i, task := range l.tasks {
		if task.ID == id {
			l.tasks = append(l.tasks[:i:i], l.tasks[i+1:]...)
			l.totalCount--
			l.totalPages = pageCount(l.totalCount, l.limit)
			break
		}
	}
	if l.state == StatePopulated && len(l.tasks) == 0 {
		l.state = StateEmpty
	}
	return nil
}

// View returns a copy of the list state.
func (l *TaskList) View() TaskListView {
	l.mu.Lock()
	defer l.mu.Unlock()

	tasks := make([]dto.TaskDTO, len(l.tasks))
	copy(tasks, l.tasks)
	return TaskListView{
		State:      l.state,
		Tasks:      tasks,
		Page:       l.page,
		Limit:      l.limit,
		TotalPages: l.totalPages,
		TotalCount: l.totalCount,
		Err:        l.err,
	}
}

func pageCount(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
