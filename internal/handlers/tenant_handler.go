package handlers

import (
	"net/http"

	"council/internal/models"
	"council/internal/services"

	"github.com/gin-gonic/gin"
)

type TenantHandler struct {
	tenantService *services.TenantService
}

func NewTenantHandler(tenantService *services.TenantService) *TenantHandler {
	return &TenantHandler{
		tenantService: tenantService,
	}
}

// RegisterTenant registers a governance context
// POST /api/tenants
func (h *TenantHandler) RegisterTenant(c *gin.Context) {
	var req models.RegisterTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant, err := h.tenantService.Register(c.Request.Context(), &req)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, tenant)
}

// GetTenant retrieves a tenant
// GET /api/tenants/:id
func (h *TenantHandler) GetTenant(c *gin.Context) {
	tenant, err := h.tenantService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, tenant)
}

type roleMemberRequest struct {
	RoleID  string `json:"role_id" binding:"required"`
	VoterID string `json:"voter_id" binding:"required"`
}

// AddRoleMember adds a voter to a role roster
// POST /api/tenants/:id/roles
func (h *TenantHandler) AddRoleMember(c *gin.Context) {
	var req roleMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tenantService.AddRoleMember(c.Request.Context(), c.Param("id"), req.RoleID, req.VoterID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"added": true})
}

// RemoveRoleMember removes a voter from a role roster
// DELETE /api/tenants/:id/roles
func (h *TenantHandler) RemoveRoleMember(c *gin.Context) {
	var req roleMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tenantService.RemoveRoleMember(c.Request.Context(), c.Param("id"), req.RoleID, req.VoterID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": true})
}
