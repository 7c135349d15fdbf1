package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/collab-api/internal/middleware"
)

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Auth           *AuthHandler
	Teams          *TeamHandler
	Projects       *ProjectHandler
	TeamMembers    *MembershipHandler
	ProjectMembers *MembershipHandler
	Invitations    *InvitationHandler
	Tasks          *TaskHandler
}

// RegisterRoutes mounts the API on r. Session middleware must already be
// installed.
func RegisterRoutes(r gin.IRouter, h Handlers) {
	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Collaboration API is running",
		})
	})

	id := middleware.RequireIDParam("id")
	member := middleware.RequireIDParam("id", "user_id")

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", h.Auth.Signup)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/logout", h.Auth.Logout)
			auth.POST("/verify-email", h.Auth.VerifyEmail)
			auth.POST("/resend-verification", h.Auth.ResendVerification)
			auth.POST("/forgot-password", h.Auth.ForgotPassword)
			auth.POST("/reset-password", h.Auth.ResetPassword)
			auth.GET("/me", middleware.RequireAuth(), h.Auth.GetCurrentUser)
			auth.DELETE("/account", middleware.RequireAuth(), h.Auth.DeleteAccount)
		}

		// Team routes (protected)
		teams := api.Group("/teams")
		teams.Use(middleware.RequireAuth())
		{
			teams.POST("", h.Teams.CreateTeam)
			teams.GET("", h.Teams.ListTeams)
			teams.POST("/join", h.TeamMembers.JoinByLink)
			teams.GET("/:id", id, h.Teams.GetTeam)
			teams.PATCH("/:id", id, h.Teams.UpdateTeam)
			teams.DELETE("/:id", id, h.Teams.DeleteTeam)
			registerMemberRoutes(teams, h.TeamMembers, id, member)
		}

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth())
		{
			projects.POST("", h.Projects.CreateProject)
			projects.GET("", h.Projects.ListProjects)
			projects.POST("/join", h.ProjectMembers.JoinByLink)
			projects.GET("/:id", id, h.Projects.GetProject)
			projects.PATCH("/:id", id, h.Projects.UpdateProject)
			projects.DELETE("/:id", id, h.Projects.DeleteProject)
			registerMemberRoutes(projects, h.ProjectMembers, id, member)

			projects.GET("/:id/tasks", id, h.Tasks.ListTasks)
			projects.POST("/:id/tasks", id, h.Tasks.CreateTask)
			projects.POST("/:id/tasks/generate", id, h.Tasks.GenerateTasks)
		}

		invitations := api.Group("/invitations")
		invitations.Use(middleware.RequireAuth())
		{
			invitations.POST("/accept", h.Invitations.AcceptInvitation)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth(), id)
		{
			tasks.GET("/:id", h.Tasks.GetTask)
			tasks.PATCH("/:id", h.Tasks.UpdateTask)
			tasks.DELETE("/:id", h.Tasks.DeleteTask)
			tasks.PATCH("/:id/status", h.Tasks.ChangeStatus)
			tasks.POST("/:id/assign", h.Tasks.AssignTask)
			tasks.POST("/:id/unassign", h.Tasks.UnassignTask)
		}
	}
}

func registerMemberRoutes(g *gin.RouterGroup, h *MembershipHandler, id, member gin.HandlerFunc) {
	g.GET("/:id/members", id, h.ListMembers)
	g.POST("/:id/members", id, h.InviteMember)
	g.PATCH("/:id/members/:user_id", member, h.UpdateMemberRole)
	g.DELETE("/:id/members/:user_id", member, h.RemoveMember)
	g.POST("/:id/leave", id, h.Leave)
	g.POST("/:id/invite-link", id, h.GenerateInviteLink)
	g.DELETE("/:id/invite-link", id, h.RevokeInviteLink)
}
