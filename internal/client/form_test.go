package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-manager/internal/dto"
)

func TestTaskForm_RejectsSecondSubmitWhileInFlight(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(arrived) })
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(dto.TaskDTO{ID: "t1", Title: "Slow"})
	}))
	defer server.Close()

	store := NewMemoryStore()
	require.NoError(t, store.Save(&SessionData{UserID: "u1", Token: "token"}))
	api := New(server.URL, store)
	require.NoError(t, api.Session().Init())

	form := NewCreateForm(api)
	form.Fields = TaskFields{Title: "Slow", Description: "d", DueDate: "2025-03-01"}

	done := make(chan error, 1)
	go func() {
		_, err := form.Submit(context.Background())
		done <- err
	}()

	<-arrived
	assert.True(t, form.Submitting())
	_, err := form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, form.Submitting())
}

func TestTaskForm_Validation(t *testing.T) {
	form := NewCreateForm(New("http://127.0.0.1:0", NewMemoryStore()))
	form.Fields = TaskFields{Description: "d", DueDate: "2025-03-01"}

	_, err := form.Submit(context.Background())
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "title", fieldErr.Field)
	assert.False(t, form.Submitting())
}

func TestTaskPatch_Body(t *testing.T) {
	title := "New"
	assert.Equal(t, map[string]interface{}{"title": "New"}, TaskPatch{Title: &title}.Body())
	assert.Equal(t, map[string]interface{}{"assignedTo": nil}, TaskPatch{Unassign: true}.Body())
	assert.True(t, TaskPatch{}.Empty())
}

func TestEditForm_PatchOnlyChangedFields(t *testing.T) {
	form := NewEditForm(nil, dto.TaskDTO{
		ID:          "t1",
		Title:       "Title",
		Description: "Description",
		Priority:    "low",
		Status:      "To Do",
		AssignedTo:  &dto.UserDTO{ID: "u1"},
	})
	assert.True(t, form.Patch().Empty())

	form.Fields.Priority = "high"
	form.Fields.AssignedTo = ""
	patch := form.Patch()
	require.NotNil(t, patch.Priority)
	assert.Equal(t, "high", *patch.Priority)
	assert.True(t, patch.Unassign)
	assert.Nil(t, patch.Title)
}
