package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-manager/internal/dto"
	"github.com/yukikurage/task-manager/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskHandlerTestSuite exercises the task routes through the full router
type TaskHandlerTestSuite struct {
	suite.Suite
	env    testEnv
	userID string
	token  string
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	suite.env = setupTestEnv(suite.T())
	suite.userID, suite.token = suite.env.registerAndLogin(suite.T(), "Alice", "alice@example.com")
}

func (suite *TaskHandlerTestSuite) createTask(body map[string]interface{}) dto.TaskDTO {
	w := suite.env.request(http.MethodPost, "/api/tasks", body, suite.token)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.TaskDTO](suite.T(), w)
}

func validTaskBody(title string) map[string]interface{} {
	return map[string]interface{}{
		"title":       title,
		"description": "Task Description",
		"dueDate":     "2025-03-01",
	}
}

func (suite *TaskHandlerTestSuite) TestCreateTask_Defaults() {
	task := suite.createTask(validTaskBody("New Task"))

	suite.True(models.IsValidID(task.ID))
	suite.Equal("New Task", task.Title)
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Equal(models.TaskPriorityMedium, task.Priority)
	suite.Nil(task.AssignedTo)
	suite.Equal("2025-03-01", task.DueDate.Format("2006-01-02"))
}

func (suite *TaskHandlerTestSuite) TestCreateTask_WithAssignee() {
	body := validTaskBody("Assigned")
	body["assignedTo"] = suite.userID
	body["priority"] = "high"

	task := suite.createTask(body)

	suite.Require().NotNil(task.AssignedTo)
	suite.Equal(suite.userID, task.AssignedTo.ID)
	suite.Equal("Alice", task.AssignedTo.Name)
	suite.Equal("alice@example.com", task.AssignedTo.Email)
	suite.Equal(models.TaskPriorityHigh, task.Priority)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_InvalidRequest() {
	tests := []struct {
		name string
		body interface{}
	}{
		{"malformed json", "invalid json"},
		{"missing title", map[string]interface{}{"description": "d", "dueDate": "2025-03-01"}},
		{"missing due date", map[string]interface{}{"title": "t", "description": "d"}},
		{"bad due date", map[string]interface{}{"title": "t", "description": "d", "dueDate": "someday"}},
		{"bad priority", map[string]interface{}{"title": "t", "description": "d", "dueDate": "2025-03-01", "priority": "urgent"}},
		{"bad status", map[string]interface{}{"title": "t", "description": "d", "dueDate": "2025-03-01", "status": "Done"}},
		{"malformed assignee", map[string]interface{}{"title": "t", "description": "d", "dueDate": "2025-03-01", "assignedTo": "42"}},
		{"unknown assignee", map[string]interface{}{"title": "t", "description": "d", "dueDate": "2025-03-01", "assignedTo": primitive.NewObjectID().Hex()}},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.env.request(http.MethodPost, "/api/tasks", tt.body, suite.token)
			suite.Equal(http.StatusBadRequest, w.Code, w.Body.String())

			resp := decode[map[string]interface{}](suite.T(), w)
			suite.NotEmpty(resp["code"])
			suite.NotEmpty(resp["message"])
		})
	}
}

func (suite *TaskHandlerTestSuite) TestRequiresAuthentication() {
	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodGet, "/api/tasks/" + primitive.NewObjectID().Hex()},
		{http.MethodPut, "/api/tasks/" + primitive.NewObjectID().Hex()},
		{http.MethodDelete, "/api/tasks/" + primitive.NewObjectID().Hex()},
		{http.MethodGet, "/api/users"},
	}

	for _, route := range routes {
		w := suite.env.request(route.method, route.path, nil, "")
		suite.Equal(http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)

		w = suite.env.request(route.method, route.path, nil, "not-a-token")
		suite.Equal(http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func (suite *TaskHandlerTestSuite) TestListTasks_Pagination() {
	for i := 0; i < 12; i++ {
		suite.createTask(validTaskBody("Task"))
	}

	w := suite.env.request(http.MethodGet, "/api/tasks", nil, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code)
	resp := decode[dto.TaskListResponse](suite.T(), w)
	suite.Len(resp.Tasks, 10)
	suite.Equal(2, resp.TotalPages)
	suite.Equal(1, resp.Page)
	suite.Equal(10, resp.Limit)
	suite.EqualValues(12, resp.TotalCount)

	w = suite.env.request(http.MethodGet, "/api/tasks?page=2&limit=10", nil, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code)
	resp = decode[dto.TaskListResponse](suite.T(), w)
	suite.Len(resp.Tasks, 2)

	w = suite.env.request(http.MethodGet, "/api/tasks?page=5", nil, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code)
	resp = decode[dto.TaskListResponse](suite.T(), w)
	suite.Empty(resp.Tasks)
	suite.NotNil(resp.Tasks)
}

func (suite *TaskHandlerTestSuite) TestListTasks_InvalidPagination() {
	suite.createTask(validTaskBody("Task"))

	for _, query := range []string{"page=0", "page=-1", "page=abc", "limit=0", "limit=x",
		"limit=10&page=9223372036854775807", "page=922337203685477582"} {
		w := suite.env.request(http.MethodGet, "/api/tasks?"+query, nil, suite.token)
		suite.Equal(http.StatusBadRequest, w.Code, query)
	}
}

func (suite *TaskHandlerTestSuite) TestGetTask() {
	created := suite.createTask(validTaskBody("Fetch me"))

	w := suite.env.request(http.MethodGet, "/api/tasks/"+created.ID, nil, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code)
	task := decode[dto.TaskDTO](suite.T(), w)
	suite.Equal(created.ID, task.ID)
	suite.Equal("Fetch me", task.Title)
}

func (suite *TaskHandlerTestSuite) TestGetTask_NotFound() {
	for _, id := range []string{primitive.NewObjectID().Hex(), "123"} {
		w := suite.env.request(http.MethodGet, "/api/tasks/"+id, nil, suite.token)
		suite.Equal(http.StatusNotFound, w.Code)

		resp := decode[map[string]interface{}](suite.T(), w)
		suite.Equal("NOT_FOUND", resp["code"])
	}
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_PartialUpdate() {
	created := suite.createTask(validTaskBody("Original"))

	w := suite.env.request(http.MethodPut, "/api/tasks/"+created.ID, map[string]interface{}{
		"status": "Completed",
	}, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	task := decode[dto.TaskDTO](suite.T(), w)
	suite.Equal(models.TaskStatusCompleted, task.Status)
	suite.Equal("Original", task.Title)
	suite.Equal("Task Description", task.Description)
	suite.Equal(models.TaskPriorityMedium, task.Priority)
	suite.True(task.DueDate.Equal(created.DueDate))
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_PatchAssignAndUnassign() {
	created := suite.createTask(validTaskBody("Assign me"))

	w := suite.env.request(http.MethodPatch, "/api/tasks/"+created.ID, map[string]interface{}{
		"assignedTo": suite.userID,
	}, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	task := decode[dto.TaskDTO](suite.T(), w)
	suite.Require().NotNil(task.AssignedTo)
	suite.Equal("Alice", task.AssignedTo.Name)

	w = suite.env.request(http.MethodPatch, "/api/tasks/"+created.ID, `{"assignedTo": null}`, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	task = decode[dto.TaskDTO](suite.T(), w)
	suite.Nil(task.AssignedTo)
}

// Creating a task, then updating it with an assignee that does not exist,
// is rejected and leaves the task as it was.
func (suite *TaskHandlerTestSuite) TestUpdateTask_UnknownAssigneeLeavesTaskUnchanged() {
	created := suite.createTask(validTaskBody("Stable"))
	suite.Equal(models.TaskStatusTodo, created.Status)

	w := suite.env.request(http.MethodPut, "/api/tasks/"+created.ID, map[string]interface{}{
		"title":      "Changed",
		"assignedTo": primitive.NewObjectID().Hex(),
	}, suite.token)
	suite.Require().Equal(http.StatusBadRequest, w.Code)
	resp := decode[map[string]interface{}](suite.T(), w)
	suite.Contains(resp["message"], "assigned user not found")

	w = suite.env.request(http.MethodGet, "/api/tasks/"+created.ID, nil, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code)
	task := decode[dto.TaskDTO](suite.T(), w)
	suite.Equal("Stable", task.Title)
	suite.Nil(task.AssignedTo)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_InvalidRequest() {
	created := suite.createTask(validTaskBody("Target"))

	bodies := []interface{}{
		"invalid json",
		map[string]interface{}{"title": nil},
		map[string]interface{}{"title": 42},
		map[string]interface{}{"title": "   "},
		map[string]interface{}{"priority": "urgent"},
		map[string]interface{}{"status": "Done"},
		map[string]interface{}{"dueDate": "next week"},
		map[string]interface{}{"assignedTo": "not-an-id"},
	}
	for _, body := range bodies {
		w := suite.env.request(http.MethodPut, "/api/tasks/"+created.ID, body, suite.token)
		suite.Equal(http.StatusBadRequest, w.Code, "%v: %s", body, w.Body.String())
	}
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_NotFound() {
	w := suite.env.request(http.MethodPut, "/api/tasks/"+primitive.NewObjectID().Hex(), map[string]interface{}{
		"title": "x",
	}, suite.token)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask() {
	created := suite.createTask(validTaskBody("Delete me"))

	w := suite.env.request(http.MethodDelete, "/api/tasks/"+created.ID, nil, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code)
	resp := decode[dto.MessageResponse](suite.T(), w)
	suite.Equal("Task deleted successfully", resp.Message)

	w = suite.env.request(http.MethodGet, "/api/tasks/"+created.ID, nil, suite.token)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.env.request(http.MethodDelete, "/api/tasks/"+created.ID, nil, suite.token)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestDanglingAssigneeRendersID() {
	otherID, _ := suite.env.registerAndLogin(suite.T(), "Bob", "bob@example.com")
	body := validTaskBody("Orphan")
	body["assignedTo"] = otherID
	created := suite.createTask(body)

	suite.Require().NoError(suite.env.db.Delete(&models.User{}, "id = ?", otherID).Error)

	w := suite.env.request(http.MethodGet, "/api/tasks/"+created.ID, nil, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code)
	resp := decode[map[string]interface{}](suite.T(), w)
	suite.Equal(map[string]interface{}{"id": otherID}, resp["assignedTo"])
}

func (suite *TaskHandlerTestSuite) TestListUsers() {
	suite.env.registerAndLogin(suite.T(), "Bob", "bob@example.com")

	w := suite.env.request(http.MethodGet, "/api/users", nil, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code)

	users := decode[[]map[string]interface{}](suite.T(), w)
	suite.Require().Len(users, 2)
	suite.Equal("Alice", users[0]["name"])
	suite.Equal("bob@example.com", users[1]["email"])
	suite.NotContains(users[0], "passwordHash")
	suite.NotContains(users[0], "password")
}

func (suite *TaskHandlerTestSuite) TestHealth() {
	w := suite.env.request(http.MethodGet, "/health", nil, "")
	suite.Equal(http.StatusOK, w.Code)
}

// TestTaskHandlerTestSuite runs the test suite
func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
