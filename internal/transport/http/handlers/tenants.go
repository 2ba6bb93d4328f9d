package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cevi/onlinemat-sub000/internal/transport/http/middleware"
	"github.com/cevi/onlinemat-sub000/internal/usecase"
)

// TenantHandler exposes tenant lifecycle endpoints.
type TenantHandler struct {
	tenants *usecase.TenantService
}

// NewTenantHandler builds the tenant handler.
func NewTenantHandler(tenants *usecase.TenantService) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

// RegisterRoutes mounts the tenant endpoints on the supplied group.
func (h *TenantHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Create)
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.PATCH("/:id", h.Update)
	r.DELETE("/:id", h.Delete)
}

// Create founds a new tenant with the caller as its first admin.
func (h *TenantHandler) Create(c *gin.Context) {
	if h.tenants == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "tenant handler not fully configured"))
		return
	}

	actorID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req TenantCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid tenant payload"))
		return
	}

	input := usecase.CreateTenantInput{
		Name: strings.TrimSpace(req.Name),
		Slug: strings.TrimSpace(req.Slug),
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		if trimmed != "" {
			input.Description = &trimmed
		}
	}

	tenant, err := h.tenants.Create(c.Request.Context(), actorID, input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrTenantExists, Status: http.StatusConflict, Message: "tenant slug already taken"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusUnauthorized, Message: "unknown user"},
		}, http.StatusInternalServerError, "failed to create tenant")
		return
	}

	c.JSON(http.StatusCreated, tenantPayload(*tenant))
}

// List returns all tenants. Listing is open so users can find tenants to join.
func (h *TenantHandler) List(c *gin.Context) {
	if h.tenants == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "tenant handler not fully configured"))
		return
	}

	tenants, err := h.tenants.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list tenants"))
		return
	}

	payload := make([]TenantPayload, 0, len(tenants))
	for _, tenant := range tenants {
		payload = append(payload, tenantPayload(tenant))
	}

	c.JSON(http.StatusOK, TenantListResponse{Tenants: payload})
}

// Get returns a single tenant if the caller may read it.
func (h *TenantHandler) Get(c *gin.Context) {
	if h.tenants == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "tenant handler not fully configured"))
		return
	}

	actorID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	tenant, err := h.tenants.Get(c.Request.Context(), actorID, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrTenantNotFound, Status: http.StatusNotFound, Message: "tenant not found"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusUnauthorized, Message: "unknown user"},
		}, http.StatusInternalServerError, "failed to load tenant")
		return
	}

	c.JSON(http.StatusOK, tenantPayload(*tenant))
}

// Update modifies tenant metadata.
func (h *TenantHandler) Update(c *gin.Context) {
	if h.tenants == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "tenant handler not fully configured"))
		return
	}

	actorID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req TenantUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid tenant payload"))
		return
	}

	input := usecase.UpdateTenantInput{ID: c.Param("id")}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		input.Name = &trimmed
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		input.Description = &trimmed
	}

	tenant, err := h.tenants.Update(c.Request.Context(), actorID, input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrTenantNotFound, Status: http.StatusNotFound, Message: "tenant not found"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusUnauthorized, Message: "unknown user"},
		}, http.StatusInternalServerError, "failed to update tenant")
		return
	}

	c.JSON(http.StatusOK, tenantPayload(*tenant))
}

// Delete removes a tenant.
func (h *TenantHandler) Delete(c *gin.Context) {
	if h.tenants == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "tenant handler not fully configured"))
		return
	}

	actorID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	if err := h.tenants.Delete(c.Request.Context(), actorID, c.Param("id")); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrTenantNotFound, Status: http.StatusNotFound, Message: "tenant not found"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusUnauthorized, Message: "unknown user"},
		}, http.StatusInternalServerError, "failed to delete tenant")
		return
	}

	c.Status(http.StatusNoContent)
}
