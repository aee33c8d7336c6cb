package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/services"
)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	env *testEnv
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	env, err := newTestEnv()
	suite.Require().NoError(err)
	suite.env = env
}

// TearDownTest runs after each test
func (suite *TaskHandlerTestSuite) TearDownTest() {
	suite.env.close()
}

func (suite *TaskHandlerTestSuite) createTask(owner *models.User, title string, priority models.TaskPriority) *models.Task {
	task, err := suite.env.taskService.Create(owner, services.CreateTaskInput{
		Title:    title,
		Priority: priority,
	}, "")
	suite.Require().NoError(err)
	return task
}

func (suite *TaskHandlerTestSuite) TestListTasks_RequiresAuth() {
	w := suite.env.request("GET", "/api/tasks", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListTasks_Envelope() {
	alice := suite.env.createUser("alice", false)
	suite.createTask(alice, "Buy milk", models.TaskPriorityHigh)

	w := suite.env.request("GET", "/api/tasks", suite.env.accessToken(alice), nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	envelope, err := decodeEnvelope(w)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), true, envelope["success"])

	data := envelope["data"].(map[string]interface{})
	assert.EqualValues(suite.T(), 1, data["count"])
	assert.Nil(suite.T(), data["next"])
	assert.Nil(suite.T(), data["previous"])

	results := data["results"].([]interface{})
	suite.Require().Len(results, 1)
	assert.Equal(suite.T(), "Buy milk", results[0].(map[string]interface{})["title"])
}

func (suite *TaskHandlerTestSuite) TestListTasks_PriorityFilterAndIsolation() {
	alice := suite.env.createUser("alice", false)
	bob := suite.env.createUser("bob", false)
	suite.createTask(alice, "Buy milk", models.TaskPriorityHigh)
	suite.createTask(alice, "Laundry", models.TaskPriorityLow)

	// Alice sees the HIGH task through the filter
	w := suite.env.request("GET", "/api/tasks?priority=HIGH", suite.env.accessToken(alice), nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	envelope, err := decodeEnvelope(w)
	suite.Require().NoError(err)
	data := envelope["data"].(map[string]interface{})
	assert.EqualValues(suite.T(), 1, data["count"])

	// Bob's list is empty
	w = suite.env.request("GET", "/api/tasks", suite.env.accessToken(bob), nil)
	envelope, err = decodeEnvelope(w)
	suite.Require().NoError(err)
	data = envelope["data"].(map[string]interface{})
	assert.EqualValues(suite.T(), 0, data["count"])
}

func (suite *TaskHandlerTestSuite) TestListTasks_Pagination() {
	alice := suite.env.createUser("alice", false)
	for i := 0; i < 5; i++ {
		suite.createTask(alice, fmt.Sprintf("Task number %d", i), models.TaskPriorityMedium)
	}

	w := suite.env.request("GET", "/api/tasks?page=1&page_size=2", suite.env.accessToken(alice), nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	envelope, err := decodeEnvelope(w)
	suite.Require().NoError(err)
	data := envelope["data"].(map[string]interface{})
	assert.EqualValues(suite.T(), 5, data["count"])
	assert.NotNil(suite.T(), data["next"])
	assert.Nil(suite.T(), data["previous"])
	assert.Len(suite.T(), data["results"].([]interface{}), 2)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_Success() {
	alice := suite.env.createUser("alice", false)

	w := suite.env.request("POST", "/api/tasks", suite.env.accessToken(alice), map[string]interface{}{
		"title":    "Buy milk",
		"priority": "HIGH",
	})

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	envelope, err := decodeEnvelope(w)
	suite.Require().NoError(err)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(suite.T(), "Buy milk", data["title"])
	assert.Equal(suite.T(), "HIGH", data["priority"])
	assert.Equal(suite.T(), "TODO", data["status"])
	assert.EqualValues(suite.T(), alice.ID, data["user_id"])
}

func (suite *TaskHandlerTestSuite) TestCreateTask_ValidationFailure() {
	alice := suite.env.createUser("alice", false)

	w := suite.env.request("POST", "/api/tasks", suite.env.accessToken(alice), map[string]interface{}{
		"title": "ab",
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	envelope, err := decodeEnvelope(w)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), false, envelope["success"])
	assert.Contains(suite.T(), envelope["errors"].(map[string]interface{}), "title")
}

func (suite *TaskHandlerTestSuite) TestGetTask_ForeignTaskHidden() {
	alice := suite.env.createUser("alice", false)
	bob := suite.env.createUser("bob", false)
	task := suite.createTask(alice, "Buy milk", models.TaskPriorityMedium)

	w := suite.env.request("GET", fmt.Sprintf("/api/tasks/%d", task.ID), suite.env.accessToken(bob), nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestGetTask_SuperuserSeesAll() {
	alice := suite.env.createUser("alice", false)
	admin := suite.env.createUser("admin", true)
	task := suite.createTask(alice, "Buy milk", models.TaskPriorityMedium)

	w := suite.env.request("GET", fmt.Sprintf("/api/tasks/%d", task.ID), suite.env.accessToken(admin), nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *TaskHandlerTestSuite) TestPatchTask_PartialUpdate() {
	alice := suite.env.createUser("alice", false)
	task := suite.createTask(alice, "Buy milk", models.TaskPriorityMedium)

	w := suite.env.request("PATCH", fmt.Sprintf("/api/tasks/%d", task.ID), suite.env.accessToken(alice), map[string]interface{}{
		"status": "DONE",
	})

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	envelope, err := decodeEnvelope(w)
	suite.Require().NoError(err)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(suite.T(), "DONE", data["status"])
	assert.Equal(suite.T(), "Buy milk", data["title"])
}

func (suite *TaskHandlerTestSuite) TestPatchTask_NullDueDateClears() {
	alice := suite.env.createUser("alice", false)
	due := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	task, err := suite.env.taskService.Create(alice, services.CreateTaskInput{
		Title:   "Buy milk",
		DueDate: &due,
	}, "")
	suite.Require().NoError(err)

	w := suite.env.request("PATCH", fmt.Sprintf("/api/tasks/%d", task.ID), suite.env.accessToken(alice), map[string]interface{}{
		"due_date": nil,
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var stored models.Task
	suite.Require().NoError(suite.env.db.First(&stored, task.ID).Error)
	assert.Nil(suite.T(), stored.DueDate)
}

func (suite *TaskHandlerTestSuite) TestPatchTask_OmittedDueDateKept() {
	alice := suite.env.createUser("alice", false)
	due := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	task, err := suite.env.taskService.Create(alice, services.CreateTaskInput{
		Title:   "Buy milk",
		DueDate: &due,
	}, "")
	suite.Require().NoError(err)

	w := suite.env.request("PATCH", fmt.Sprintf("/api/tasks/%d", task.ID), suite.env.accessToken(alice), map[string]interface{}{
		"status": "DONE",
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var stored models.Task
	suite.Require().NoError(suite.env.db.First(&stored, task.ID).Error)
	suite.Require().NotNil(stored.DueDate)
	assert.True(suite.T(), stored.DueDate.Equal(due))
}

func (suite *TaskHandlerTestSuite) TestPutTask_FullReplace() {
	alice := suite.env.createUser("alice", false)
	task := suite.createTask(alice, "Buy milk", models.TaskPriorityHigh)

	w := suite.env.request("PUT", fmt.Sprintf("/api/tasks/%d", task.ID), suite.env.accessToken(alice), map[string]interface{}{
		"title":  "Buy oat milk",
		"status": "IN_PROGRESS",
	})

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	envelope, err := decodeEnvelope(w)
	suite.Require().NoError(err)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(suite.T(), "Buy oat milk", data["title"])
	assert.Equal(suite.T(), "IN_PROGRESS", data["status"])
	// PUT resets the omitted priority to its default
	assert.Equal(suite.T(), "MEDIUM", data["priority"])
}

func (suite *TaskHandlerTestSuite) TestDeleteTask_Success() {
	alice := suite.env.createUser("alice", false)
	task := suite.createTask(alice, "Buy milk", models.TaskPriorityMedium)

	w := suite.env.request("DELETE", fmt.Sprintf("/api/tasks/%d", task.ID), suite.env.accessToken(alice), nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var count int64
	suite.env.db.Model(&models.Task{}).Count(&count)
	assert.EqualValues(suite.T(), 0, count)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask_NonexistentNoAuditEntry() {
	alice := suite.env.createUser("alice", false)

	w := suite.env.request("DELETE", "/api/tasks/9999", suite.env.accessToken(alice), nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	var deletes int64
	suite.env.db.Model(&models.AuditLog{}).
		Where("action = ?", models.AuditActionDelete).
		Count(&deletes)
	assert.EqualValues(suite.T(), 0, deletes)
}

func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
