package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"council/internal/auth"
	"council/internal/models"
	"council/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProposalHandler struct {
	votingService *services.VotingService
}

func NewProposalHandler(votingService *services.VotingService) *ProposalHandler {
	return &ProposalHandler{
		votingService: votingService,
	}
}

// CreateProposal creates a new proposal
// POST /api/proposals
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	proposerID, exists := auth.GetVoterID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposal, err := h.votingService.CreateProposal(c.Request.Context(), proposerID, &req)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, proposal)
}

// GetProposal retrieves a proposal with its live tally
// GET /api/proposals/:id
func (h *ProposalHandler) GetProposal(c *gin.Context) {
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal id"})
		return
	}

	proposal, tally, err := h.votingService.GetProposal(c.Request.Context(), proposalID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"proposal": proposal,
		"tally":    tally,
	})
}

// CastVote records a ballot on a proposal
// POST /api/proposals/:id/votes
func (h *ProposalHandler) CastVote(c *gin.Context) {
	voterID, exists := auth.GetVoterID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal id"})
		return
	}

	var req models.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.votingService.CastVote(c.Request.Context(), proposalID, voterID, req.Choice)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// CancelProposal withdraws a zero-vote proposal
// POST /api/proposals/:id/cancel
func (h *ProposalHandler) CancelProposal(c *gin.Context) {
	proposerID, exists := auth.GetVoterID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal id"})
		return
	}

	cancelled, err := h.votingService.CancelProposal(c.Request.Context(), proposalID, proposerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

// ListTenantProposals lists a tenant's proposals
// GET /api/tenants/:id/proposals
func (h *ProposalHandler) ListTenantProposals(c *gin.Context) {
	tenantID := c.Param("id")

	status := models.ProposalStatus(c.Query("status"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	proposals, err := h.votingService.ListTenantProposals(c.Request.Context(), tenantID, status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// statusForError maps engine error kinds to HTTP status codes so clients
// can branch without parsing messages.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrNotEligible):
		return http.StatusForbidden
	case errors.Is(err, services.ErrAlreadyVoted):
		return http.StatusConflict
	case errors.Is(err, services.ErrTooManyActive):
		return http.StatusConflict
	case errors.Is(err, services.ErrEmptyElectorate),
		errors.Is(err, services.ErrInvalidThreshold),
		errors.Is(err, services.ErrInvalidChoice):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrSideEffectFailed),
		errors.Is(err, services.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
