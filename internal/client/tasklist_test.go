package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-manager/internal/dto"
)

// stubAPI serves a fixed page of tasks and refuses to delete "locked".
func stubAPI(t *testing.T, tasks []dto.TaskDTO) *Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/tasks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(dto.TaskListResponse{
			Tasks:      tasks,
			TotalPages: 1,
			Page:       1,
			Limit:      10,
			TotalCount: int64(len(tasks)),
		})
	})
	mux.HandleFunc("/api/tasks/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
		w.Header().Set("Content-Type", "application/json")
		if r.Method != http.MethodDelete || id == "locked" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"code": "NOT_FOUND", "message": "task not found"})
			return
		}
		_ = json.NewEncoder(w).Encode(dto.MessageResponse{Message: "Task deleted successfully"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	store := NewMemoryStore()
	require.NoError(t, store.Save(&SessionData{UserID: "u1", Token: "token"}))
	api := New(server.URL, store)
	require.NoError(t, api.Session().Init())
	return api
}

func TestTaskList_States(t *testing.T) {
	api := stubAPI(t, []dto.TaskDTO{{ID: "a", Title: "A"}, {ID: "locked", Title: "Locked"}})
	list := NewTaskList(api, 10)

	assert.Equal(t, StateEmpty, list.View().State)

	require.NoError(t, list.Load(context.Background(), 1))
	view := list.View()
	assert.Equal(t, StatePopulated, view.State)
	assert.Len(t, view.Tasks, 2)
	assert.Equal(t, 1, view.TotalPages)
}

func TestTaskList_DeleteKeepsItemWhenRefused(t *testing.T) {
	api := stubAPI(t, []dto.TaskDTO{{ID: "a", Title: "A"}, {ID: "locked", Title: "Locked"}})
	list := NewTaskList(api, 10)
	require.NoError(t, list.Load(context.Background(), 1))

	err := list.Delete(context.Background(), "locked")
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Len(t, list.View().Tasks, 2)

	require.NoError(t, list.Delete(context.Background(), "a"))
	view := list.View()
	require.Len(t, view.Tasks, 1)
	assert.Equal(t, "locked", view.Tasks[0].ID)
	assert.EqualValues(t, 1, view.TotalCount)
	assert.Equal(t, StatePopulated, view.State)
}

func TestTaskList_DeleteRecomputesTotalPages(t *testing.T) {
	api := stubAPI(t, []dto.TaskDTO{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}, {ID: "c", Title: "C"}})
	list := NewTaskList(api, 2)
	require.NoError(t, list.Load(context.Background(), 1))

	list.mu.Lock()
	list.totalPages = 2
	list.mu.Unlock()

	require.NoError(t, list.Delete(context.Background(), "a"))
	view := list.View()
	assert.EqualValues(t, 2, view.TotalCount)
	assert.Equal(t, 1, view.TotalPages)

	require.NoError(t, list.Next(context.Background()))
	assert.Equal(t, 1, list.View().Page)
}

func TestTaskList_EmptyPage(t *testing.T) {
	api := stubAPI(t, []dto.TaskDTO{})
	list := NewTaskList(api, 10)

	require.NoError(t, list.Load(context.Background(), 1))
	assert.Equal(t, StateEmpty, list.View().State)
}

func TestTaskList_ErrorState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := NewMemoryStore()
	require.NoError(t, store.Save(&SessionData{UserID: "u1", Token: "token"}))
	api := New(server.URL, store)
	require.NoError(t, api.Session().Init())

	list := NewTaskList(api, 10)
	err := list.Load(context.Background(), 1)
	require.Error(t, err)

	view := list.View()
	assert.Equal(t, StateError, view.State)
	assert.Equal(t, err, view.Err)
	assert.Equal(t, "error", view.State.String())
}
