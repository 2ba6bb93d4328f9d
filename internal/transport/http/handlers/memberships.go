package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
	"github.com/cevi/onlinemat-sub000/internal/transport/http/middleware"
	"github.com/cevi/onlinemat-sub000/internal/usecase"
)

// MembershipHandler exposes membership lifecycle endpoints.
type MembershipHandler struct {
	memberships *usecase.MembershipService
}

// NewMembershipHandler builds the membership handler.
func NewMembershipHandler(memberships *usecase.MembershipService) *MembershipHandler {
	return &MembershipHandler{memberships: memberships}
}

// RegisterTenantRoutes mounts the per-tenant membership endpoints.
func (h *MembershipHandler) RegisterTenantRoutes(r *gin.RouterGroup) {
	r.POST("/:id/memberships", h.RequestJoin)
	r.GET("/:id/memberships", h.List)
}

// RegisterRoutes mounts the membership mutation endpoints.
func (h *MembershipHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.PATCH("/:id/role", h.SetRole)
	r.PATCH("/:id/ban", h.SetBanned)
	r.DELETE("/:id", h.Remove)
}

var membershipErrorCases = []ErrorCase{
	{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
	{Err: usecase.ErrMembershipNotFound, Status: http.StatusNotFound, Message: "membership not found"},
	{Err: usecase.ErrTenantNotFound, Status: http.StatusNotFound, Message: "tenant not found"},
	{Err: usecase.ErrUserNotFound, Status: http.StatusUnauthorized, Message: "unknown user"},
}

// RequestJoin files a pending join request for the caller.
func (h *MembershipHandler) RequestJoin(c *gin.Context) {
	if h.memberships == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "membership handler not fully configured"))
		return
	}

	actorID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	membership, err := h.memberships.RequestJoin(c.Request.Context(), actorID, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, append(membershipErrorCases, ErrorCase{
			Err: usecase.ErrMembershipExists, Status: http.StatusConflict, Message: "membership already exists",
		}), http.StatusInternalServerError, "failed to request membership")
		return
	}

	c.JSON(http.StatusCreated, membershipPayload(*membership))
}

// List returns the tenant roster.
func (h *MembershipHandler) List(c *gin.Context) {
	if h.memberships == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "membership handler not fully configured"))
		return
	}

	actorID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	memberships, err := h.memberships.ListByTenant(c.Request.Context(), actorID, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, membershipErrorCases,
			http.StatusInternalServerError, "failed to list memberships")
		return
	}

	payload := make([]MembershipPayload, 0, len(memberships))
	for _, membership := range memberships {
		payload = append(payload, membershipPayload(membership))
	}

	c.JSON(http.StatusOK, MembershipListResponse{Memberships: payload})
}

// SetRole assigns a role to a membership, approving it if it was pending.
func (h *MembershipHandler) SetRole(c *gin.Context) {
	if h.memberships == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "membership handler not fully configured"))
		return
	}

	actorID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req MembershipRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid role payload"))
		return
	}

	role := domain.TenantRole(strings.ToLower(strings.TrimSpace(req.Role)))
	membership, err := h.memberships.SetRole(c.Request.Context(), actorID, c.Param("id"), role)
	if err != nil {
		RespondWithMappedError(c, err, append(membershipErrorCases, ErrorCase{
			Err: usecase.ErrInvalidRole, Status: http.StatusBadRequest, Message: "invalid tenant role",
		}), http.StatusInternalServerError, "failed to set role")
		return
	}

	c.JSON(http.StatusOK, membershipPayload(*membership))
}

// SetBanned flips the ban flag on a membership.
func (h *MembershipHandler) SetBanned(c *gin.Context) {
	if h.memberships == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "membership handler not fully configured"))
		return
	}

	actorID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req MembershipBanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid ban payload"))
		return
	}

	membership, err := h.memberships.SetBanned(c.Request.Context(), actorID, c.Param("id"), req.Banned)
	if err != nil {
		RespondWithMappedError(c, err, membershipErrorCases,
			http.StatusInternalServerError, "failed to update ban state")
		return
	}

	c.JSON(http.StatusOK, membershipPayload(*membership))
}

// Remove deletes a membership.
func (h *MembershipHandler) Remove(c *gin.Context) {
	if h.memberships == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "membership handler not fully configured"))
		return
	}

	actorID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	if err := h.memberships.Remove(c.Request.Context(), actorID, c.Param("id")); err != nil {
		RespondWithMappedError(c, err, membershipErrorCases,
			http.StatusInternalServerError, "failed to remove membership")
		return
	}

	c.Status(http.StatusNoContent)
}
