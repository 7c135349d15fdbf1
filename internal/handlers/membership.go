package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/collab-api/internal/dto"
	apierrors "github.com/yukikurage/collab-api/internal/errors"
	"github.com/yukikurage/collab-api/internal/middleware"
	"github.com/yukikurage/collab-api/internal/models"
	"github.com/yukikurage/collab-api/internal/services"
)

// MembershipHandler serves the member and invitation routes of one resource
// kind. The same handler type is mounted under /teams and /projects.
type MembershipHandler struct {
	members *services.MembershipService
}

func NewMembershipHandler(members *services.MembershipService) *MembershipHandler {
	return &MembershipHandler{members: members}
}

// ListMembers returns every member and pending invitation
func (h *MembershipHandler) ListMembers(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	members, err := h.members.ListMembers(c.Request.Context(), middleware.GetIDParam(c, "id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": dto.ToMemberDTOs(members)})
}

// InviteMember sends an email invitation to a registered user
func (h *MembershipHandler) InviteMember(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	type InviteRequest struct {
		Email string            `json:"email" binding:"required,email"`
		Role  models.MemberRole `json:"role"`
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleMember
	}

	member, err := h.members.Invite(c.Request.Context(), services.InviteInput{
		ResourceID: middleware.GetIDParam(c, "id"),
		InviterID:  userID,
		Email:      req.Email,
		Role:       req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMemberDTO(*member))
}

// UpdateMemberRole changes the role of a member
func (h *MembershipHandler) UpdateMemberRole(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	type UpdateRoleRequest struct {
		Role models.MemberRole `json:"role" binding:"required"`
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.members.UpdateRole(c.Request.Context(), services.UpdateRoleInput{
		ResourceID:   middleware.GetIDParam(c, "id"),
		ActorID:      userID,
		TargetUserID: middleware.GetIDParam(c, "user_id"),
		Role:         req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMembershipDTO(*member))
}

// RemoveMember removes a member or revokes a pending invitation
func (h *MembershipHandler) RemoveMember(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	err := h.members.RemoveMember(c.Request.Context(), middleware.GetIDParam(c, "id"), userID, middleware.GetIDParam(c, "user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Leave removes the current user's own membership
func (h *MembershipHandler) Leave(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	if err := h.members.Leave(c.Request.Context(), middleware.GetIDParam(c, "id"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GenerateInviteLink issues a new shareable link, replacing the old one
func (h *MembershipHandler) GenerateInviteLink(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	link, err := h.members.GenerateInviteLink(c.Request.Context(), middleware.GetIDParam(c, "id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.InviteLinkDTO{Token: link.Token, ExpiresAt: link.ExpiresAt})
}

func (h *MembershipHandler) RevokeInviteLink(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	if err := h.members.RevokeInviteLink(c.Request.Context(), middleware.GetIDParam(c, "id"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// JoinByLink joins the current user through an invite link token
func (h *MembershipHandler) JoinByLink(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	type JoinRequest struct {
		Token string `json:"token" binding:"required"`
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.members.AcceptInviteLink(c.Request.Context(), req.Token, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMembershipDTO(*member))
}

// InvitationHandler accepts email invitations of either resource kind.
type InvitationHandler struct {
	invitations *services.InvitationService
}

func NewInvitationHandler(invitations *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

func (h *InvitationHandler) AcceptInvitation(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	type AcceptRequest struct {
		Token string `json:"token" binding:"required"`
	}

	var req AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.invitations.AcceptInvitation(c.Request.Context(), req.Token, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMembershipDTO(*member))
}
