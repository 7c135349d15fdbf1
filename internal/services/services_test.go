package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/collab-api/internal/models"
	"github.com/yukikurage/collab-api/internal/repository"
	"github.com/yukikurage/collab-api/internal/testutil"
	"gorm.io/gorm"
)

type sentMail struct {
	Kind  string
	To    string
	Name  string
	Token string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) record(mail sentMail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
}

func (m *fakeMailer) SendTeamInvitationEmail(to, teamName, token string) {
	m.record(sentMail{Kind: "team", To: to, Name: teamName, Token: token})
}

func (m *fakeMailer) SendProjectInvitationEmail(to, projectName, token string) {
	m.record(sentMail{Kind: "project", To: to, Name: projectName, Token: token})
}

func (m *fakeMailer) SendPasswordResetEmail(to, resetURL string) {
	m.record(sentMail{Kind: "reset", To: to, Token: resetURL})
}

func (m *fakeMailer) SendVerificationEmail(to, token string) {
	m.record(sentMail{Kind: "verify", To: to, Token: token})
}

func (m *fakeMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type serviceEnv struct {
	ctx   context.Context
	db    *gorm.DB
	store *repository.Store
	mail  *fakeMailer
	now   time.Time

	auth           *AuthService
	accounts       *AccountService
	teams          *TeamService
	projects       *ProjectService
	teamMembers    *MembershipService
	projectMembers *MembershipService
	invitations    *InvitationService
	tasks          *TaskService
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()

	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	mail := &fakeMailer{}
	log := testutil.Logger()

	env := &serviceEnv{
		ctx:   context.Background(),
		db:    db,
		store: store,
		mail:  mail,
		now:   time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),

		auth:           NewAuthService(store, mail, "https://app.example.com", log),
		accounts:       NewAccountService(store, log),
		teams:          NewTeamService(store, log),
		projects:       NewProjectService(store, log),
		teamMembers:    NewMembershipService(models.ResourceTeam, store, mail, log),
		projectMembers: NewMembershipService(models.ResourceProject, store, mail, log),
		invitations:    NewInvitationService(store, log),
		tasks:          NewTaskService(store, nil, log),
	}

	clock := func() time.Time { return env.now }
	env.auth.Now = clock
	env.teams.Now = clock
	env.projects.Now = clock
	env.teamMembers.Now = clock
	env.projectMembers.Now = clock
	env.invitations.Now = clock
	env.tasks.Now = clock

	return env
}

func (e *serviceEnv) user(t *testing.T, username string) *models.User {
	return testutil.CreateUser(t, e.db, username)
}

func (e *serviceEnv) team(t *testing.T, owner *models.User, name string) *models.Team {
	t.Helper()
	team, err := e.teams.CreateTeam(e.ctx, CreateTeamInput{Name: name, OwnerID: owner.ID})
	require.NoError(t, err)
	return team
}

func (e *serviceEnv) project(t *testing.T, owner *models.User, title string) *models.Project {
	t.Helper()
	project, err := e.projects.CreateProject(e.ctx, CreateProjectInput{Title: title, OwnerID: owner.ID})
	require.NoError(t, err)
	return project
}

// join adds user to the resource through an invitation they accept.
func (e *serviceEnv) join(t *testing.T, svc *MembershipService, resourceID uint64, inviter, user *models.User, role models.MemberRole) {
	t.Helper()
	member, err := svc.Invite(e.ctx, InviteInput{ResourceID: resourceID, InviterID: inviter.ID, Email: user.Email, Role: role})
	require.NoError(t, err)
	_, err = e.invitations.AcceptInvitation(e.ctx, *member.InvitationToken, user.ID)
	require.NoError(t, err)
}

func (e *serviceEnv) membership(t *testing.T, kind models.ResourceKind, resourceID, userID uint64) *models.Membership {
	t.Helper()
	member, err := e.store.Repositories().Members.FindMember(e.ctx, kind, resourceID, userID)
	require.NoError(t, err)
	return member
}

func (e *serviceEnv) countMembers(t *testing.T, kind models.ResourceKind, resourceID uint64) int {
	t.Helper()
	members, err := e.store.Repositories().Members.ListByResource(e.ctx, kind, resourceID)
	require.NoError(t, err)
	return len(members)
}
