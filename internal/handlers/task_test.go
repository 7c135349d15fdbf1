package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/collab-api/internal/dto"
	apierrors "github.com/yukikurage/collab-api/internal/errors"
	"github.com/yukikurage/collab-api/internal/models"
)

func (suite *HandlerTestSuite) createTask(cookies []*http.Cookie, projectID uint64, body gin.H) dto.TaskDTO {
	w := suite.request(http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", projectID), body, cookies)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var task dto.TaskDTO
	suite.decode(w, &task)
	return task
}

func (suite *HandlerTestSuite) TestTaskLifecycle() {
	_, ownerCookies := suite.login("owner")
	project := suite.createProject(ownerCookies, "Release")

	task := suite.createTask(ownerCookies, project.ID, gin.H{"title": "Write notes", "description": "for 1.0"})
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Equal(models.TaskStatusTodo, task.DisplayStatus)
	suite.Require().Len(task.Assignments, 1)
	suite.Equal(models.TaskRoleOwner, task.Assignments[0].Role)

	path := fmt.Sprintf("/api/tasks/%d", task.ID)
	w := suite.request(http.MethodPatch, path, gin.H{"title": "Write release notes"}, ownerCookies)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &task)
	suite.Equal("Write release notes", task.Title)

	w = suite.request(http.MethodPatch, path+"/status", gin.H{"status": "DONE", "comment": "shipped"}, ownerCookies)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &task)
	suite.Equal(models.TaskStatusDone, task.Status)
	suite.Require().NotNil(task.CompletedAt)
	suite.Require().NotNil(task.CompletionComment)
	suite.Equal("shipped", *task.CompletionComment)

	w = suite.request(http.MethodPatch, path+"/status", gin.H{"status": "IN_PROGRESS"}, ownerCookies)
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidOperation, suite.errorCode(w))

	w = suite.request(http.MethodPatch, path+"/status", gin.H{"status": "OVERDUE"}, ownerCookies)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodDelete, path, nil, ownerCookies)
	suite.Equal(http.StatusNoContent, w.Code)
	w = suite.request(http.MethodGet, path, nil, ownerCookies)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestTaskAccess() {
	_, ownerCookies := suite.login("owner")
	member, memberCookies := suite.login("member")
	outsider, outsiderCookies := suite.login("outsider")
	project := suite.createProject(ownerCookies, "Release")
	suite.invite("/api/projects", project.ID, ownerCookies, member, memberCookies, models.RoleMember)

	task := suite.createTask(ownerCookies, project.ID, gin.H{"title": "Triage"})
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := suite.request(http.MethodGet, path, nil, memberCookies)
	suite.Equal(http.StatusOK, w.Code)
	w = suite.request(http.MethodPatch, path+"/status", gin.H{"status": "IN_PROGRESS"}, memberCookies)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodGet, path, nil, outsiderCookies)
	suite.Equal(http.StatusForbidden, w.Code)
	w = suite.request(http.MethodGet, path, nil, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
	w = suite.request(http.MethodGet, "/api/tasks/999", nil, ownerCookies)
	suite.Equal(http.StatusNotFound, w.Code)
	w = suite.request(http.MethodGet, "/api/tasks/abc", nil, ownerCookies)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, path+"/assign", gin.H{"assignments": []gin.H{{"user_id": outsider.ID}}}, ownerCookies)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, path+"/assign", gin.H{"assignments": []gin.H{{"user_id": member.ID, "role": "ASSIGNEE"}}}, ownerCookies)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &task)
	suite.Len(task.Assignments, 2)

	// Assignees may move the task forward
	w = suite.request(http.MethodPatch, path+"/status", gin.H{"status": "IN_PROGRESS"}, memberCookies)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodPost, path+"/unassign", gin.H{"user_ids": []uint64{member.ID}}, ownerCookies)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &task)
	suite.Len(task.Assignments, 1)
}

func (suite *HandlerTestSuite) TestListTasks_Filters() {
	_, ownerCookies := suite.login("owner")
	project := suite.createProject(ownerCookies, "Release")

	late := suite.now.Add(-48 * time.Hour)
	soon := suite.now.Add(48 * time.Hour)
	overdue := suite.createTask(ownerCookies, project.ID, gin.H{"title": "Late", "due_date": late})
	suite.Equal(models.TaskStatusOverdue, overdue.DisplayStatus)
	suite.Equal(models.TaskStatusTodo, overdue.Status)
	suite.createTask(ownerCookies, project.ID, gin.H{"title": "Soon", "due_date": soon})
	suite.createTask(ownerCookies, project.ID, gin.H{"title": "Someday"})

	base := fmt.Sprintf("/api/projects/%d/tasks", project.ID)
	w := suite.request(http.MethodGet, base, nil, ownerCookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	var page dto.TaskListResponse
	suite.decode(w, &page)
	suite.Require().Len(page.Tasks, 3)
	suite.EqualValues(3, page.Pagination.Total)
	suite.Equal("Late", page.Tasks[0].Title)

	w = suite.request(http.MethodGet, base+"?status=OVERDUE", nil, ownerCookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &page)
	suite.Require().Len(page.Tasks, 1)
	suite.Equal(overdue.ID, page.Tasks[0].ID)

	w = suite.request(http.MethodGet, base+"?page=2&limit=2", nil, ownerCookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &page)
	suite.Len(page.Tasks, 1)
	suite.Equal(2, page.Pagination.Page)

	w = suite.request(http.MethodGet, base+"?overdue=maybe", nil, ownerCookies)
	suite.Equal(http.StatusBadRequest, w.Code)
	w = suite.request(http.MethodGet, base+"?status=BLOCKED", nil, ownerCookies)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestGenerateTasks_NotConfigured() {
	_, ownerCookies := suite.login("owner")
	project := suite.createProject(ownerCookies, "Release")

	w := suite.request(http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks/generate", project.ID), gin.H{"text": "plan the launch"}, ownerCookies)
	suite.Equal(http.StatusServiceUnavailable, w.Code)
	suite.Equal(apierrors.ErrCodeServiceUnavailable, suite.errorCode(w))
}
