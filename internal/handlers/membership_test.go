package handlers

import (
	"fmt"
	"net/http"

	"github.com/yukikurage/collab-api/internal/constants"
	"github.com/yukikurage/collab-api/internal/dto"
	apierrors "github.com/yukikurage/collab-api/internal/errors"
	"github.com/yukikurage/collab-api/internal/models"
)

func (suite *HandlerTestSuite) createTeam(cookies []*http.Cookie, name string) dto.TeamDTO {
	w := suite.request(http.MethodPost, "/api/teams", map[string]string{"name": name}, cookies)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var team dto.TeamDTO
	suite.decode(w, &team)
	return team
}

func (suite *HandlerTestSuite) createProject(cookies []*http.Cookie, title string) dto.ProjectDTO {
	w := suite.request(http.MethodPost, "/api/projects", map[string]string{"title": title}, cookies)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var project dto.ProjectDTO
	suite.decode(w, &project)
	return project
}

// invite invites user to the resource under base and accepts as them.
func (suite *HandlerTestSuite) invite(base string, id uint64, owner []*http.Cookie, user *models.User, userCookies []*http.Cookie, role models.MemberRole) {
	w := suite.request(http.MethodPost, fmt.Sprintf("%s/%d/members", base, id), map[string]string{"email": user.Email, "role": string(role)}, owner)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.request(http.MethodPost, "/api/invitations/accept", map[string]string{"token": suite.mail.Token(user.Email)}, userCookies)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
}

func (suite *HandlerTestSuite) TestTeamInvitationFlow() {
	_, ownerCookies := suite.login("owner")
	invitee, inviteeCookies := suite.login("invitee")

	team := suite.createTeam(ownerCookies, "Core")
	w := suite.request(http.MethodGet, fmt.Sprintf("/api/teams/%d", team.ID), nil, ownerCookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &team)
	suite.Require().Len(team.Members, 1)
	suite.Equal(models.RoleOwner, team.Members[0].Role)

	w = suite.request(http.MethodPost, fmt.Sprintf("/api/teams/%d/members", team.ID), map[string]string{"email": invitee.Email}, ownerCookies)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var pending dto.MemberDTO
	suite.decode(w, &pending)
	suite.True(pending.Pending)
	suite.Equal(models.RoleMember, pending.Role)

	// Not a member until accepted
	w = suite.request(http.MethodGet, fmt.Sprintf("/api/teams/%d", team.ID), nil, inviteeCookies)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal(apierrors.ErrCodeForbidden, suite.errorCode(w))

	w = suite.request(http.MethodPost, "/api/invitations/accept", map[string]string{"token": suite.mail.Token(invitee.Email)}, inviteeCookies)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var joined dto.MembershipDTO
	suite.decode(w, &joined)
	suite.False(joined.Pending)
	suite.Equal(models.ResourceTeam, joined.ResourceType)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/teams/%d/members", team.ID), nil, inviteeCookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Members []dto.MemberDTO `json:"members"`
	}
	suite.decode(w, &list)
	suite.Len(list.Members, 2)

	// A plain member cannot invite
	_, otherCookies := suite.login("other")
	w = suite.request(http.MethodPost, fmt.Sprintf("/api/teams/%d/members", team.ID), map[string]string{"email": "other@example.com"}, inviteeCookies)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPost, "/api/invitations/accept", map[string]string{"token": "unknown"}, otherCookies)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestMemberRoleAndRemoval() {
	_, ownerCookies := suite.login("owner")
	admin, adminCookies := suite.login("admin")
	admin2, admin2Cookies := suite.login("admin2")
	project := suite.createProject(ownerCookies, "Launch")
	suite.invite("/api/projects", project.ID, ownerCookies, admin, adminCookies, models.RoleAdmin)
	suite.invite("/api/projects", project.ID, ownerCookies, admin2, admin2Cookies, models.RoleAdmin)

	path := fmt.Sprintf("/api/projects/%d/members/%d", project.ID, admin2.ID)
	w := suite.request(http.MethodPatch, path, map[string]string{"role": "MEMBER"}, adminCookies)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPatch, path, map[string]string{"role": "OWNER"}, ownerCookies)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPatch, path, map[string]string{"role": "MEMBER"}, ownerCookies)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated dto.MembershipDTO
	suite.decode(w, &updated)
	suite.Equal(models.RoleMember, updated.Role)

	w = suite.request(http.MethodDelete, path, nil, adminCookies)
	suite.Equal(http.StatusNoContent, w.Code)

	w = suite.request(http.MethodPost, fmt.Sprintf("/api/projects/%d/leave", project.ID), nil, ownerCookies)
	suite.Equal(http.StatusForbidden, w.Code)
	w = suite.request(http.MethodPost, fmt.Sprintf("/api/projects/%d/leave", project.ID), nil, adminCookies)
	suite.Equal(http.StatusNoContent, w.Code)

	w = suite.request(http.MethodPatch, fmt.Sprintf("/api/projects/%d/members/abc", project.ID), map[string]string{"role": "MEMBER"}, ownerCookies)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestInviteLinkFlow() {
	_, ownerCookies := suite.login("owner")
	_, joinerCookies := suite.login("joiner")
	team := suite.createTeam(ownerCookies, "Open")

	w := suite.request(http.MethodPost, fmt.Sprintf("/api/teams/%d/invite-link", team.ID), nil, joinerCookies)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPost, fmt.Sprintf("/api/teams/%d/invite-link", team.ID), nil, ownerCookies)
	suite.Require().Equal(http.StatusCreated, w.Code)
	var link dto.InviteLinkDTO
	suite.decode(w, &link)
	suite.True(suite.now.Add(constants.TokenTTL).Equal(link.ExpiresAt), link.ExpiresAt)

	// Project links and team links are separate
	w = suite.request(http.MethodPost, "/api/projects/join", map[string]string{"token": link.Token}, joinerCookies)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPost, "/api/teams/join", map[string]string{"token": link.Token}, joinerCookies)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request(http.MethodPost, "/api/teams/join", map[string]string{"token": link.Token}, joinerCookies)
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/teams/%d/invite-link", team.ID), nil, ownerCookies)
	suite.Equal(http.StatusNoContent, w.Code)
}

func (suite *HandlerTestSuite) TestTeamAndProjectCRUD() {
	_, ownerCookies := suite.login("owner")
	team := suite.createTeam(ownerCookies, "Core")

	w := suite.request(http.MethodPost, "/api/teams", map[string]string{"name": "core"}, ownerCookies)
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.request(http.MethodPatch, fmt.Sprintf("/api/teams/%d", team.ID), map[string]string{"description": "The core team"}, ownerCookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &team)
	suite.Equal("The core team", team.Description)

	w = suite.request(http.MethodGet, "/api/teams", nil, ownerCookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	var teams struct {
		Teams []dto.TeamDTO `json:"teams"`
	}
	suite.decode(w, &teams)
	suite.Len(teams.Teams, 1)

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/teams/%d", team.ID), nil, ownerCookies)
	suite.Equal(http.StatusNoContent, w.Code)
	w = suite.request(http.MethodGet, fmt.Sprintf("/api/teams/%d", team.ID), nil, ownerCookies)
	suite.Equal(http.StatusNotFound, w.Code)

	project := suite.createProject(ownerCookies, "Roadmap")
	w = suite.request(http.MethodGet, "/api/projects", nil, ownerCookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	var projects struct {
		Projects []dto.ProjectDTO `json:"projects"`
	}
	suite.decode(w, &projects)
	suite.Require().Len(projects.Projects, 1)
	suite.Equal(project.ID, projects.Projects[0].ID)

	w = suite.request(http.MethodGet, "/api/projects/0", nil, ownerCookies)
	suite.Equal(http.StatusBadRequest, w.Code)
	w = suite.request(http.MethodGet, "/api/projects", nil, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}
