package repository

import (
	"context"
	"time"

	"council/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn against a repository bound to a single database
// transaction. All decision-making writes (vote insert + tally + status
// transition, proposal creation + cap check) go through this.
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// GetTenant retrieves a tenant by ID.
func (r *Repository) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).Where("id = ?", tenantID).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetTenantForUpdate locks the tenant row for the duration of the enclosing
// transaction. Proposal creation uses this to serialize the active-proposal
// cap check per tenant.
func (r *Repository) GetTenantForUpdate(ctx context.Context, tenantID string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", tenantID).
		First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// CreateTenant creates a tenant.
func (r *Repository) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

// CreateProposal persists a proposal together with its snapshot members.
// Call inside Transaction so the tenant cap check and the insert commit
// atomically.
func (r *Repository) CreateProposal(ctx context.Context, proposal *models.Proposal, voterIDs []string) error {
	if err := r.db.WithContext(ctx).Create(proposal).Error; err != nil {
		return err
	}
	if len(voterIDs) == 0 {
		return nil
	}
	members := make([]models.SnapshotMember, 0, len(voterIDs))
	for _, voterID := range voterIDs {
		members = append(members, models.SnapshotMember{
			ProposalID: proposal.ID,
			VoterID:    voterID,
		})
	}
	return r.db.WithContext(ctx).Create(&members).Error
}

// GetProposalByID retrieves a proposal by ID.
func (r *Repository) GetProposalByID(ctx context.Context, proposalID uuid.UUID) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.WithContext(ctx).Where("id = ?", proposalID).First(&proposal).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

// GetProposalForUpdate locks the proposal row for the enclosing transaction.
func (r *Repository) GetProposalForUpdate(ctx context.Context, proposalID uuid.UUID) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", proposalID).
		First(&proposal).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

// GetSnapshotMembers returns the voter IDs in a proposal's snapshot.
func (r *Repository) GetSnapshotMembers(ctx context.Context, proposalID uuid.UUID) ([]string, error) {
	var voterIDs []string
	err := r.db.WithContext(ctx).
		Model(&models.SnapshotMember{}).
		Where("proposal_id = ?", proposalID).
		Order("voter_id ASC").
		Pluck("voter_id", &voterIDs).Error
	if err != nil {
		return nil, err
	}
	return voterIDs, nil
}

// IsSnapshotMember reports whether voterID belongs to the proposal's snapshot.
func (r *Repository) IsSnapshotMember(ctx context.Context, proposalID uuid.UUID, voterID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SnapshotMember{}).
		Where("proposal_id = ? AND voter_id = ?", proposalID, voterID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertVote inserts a vote. The composite unique index on
// (proposal_id, voter_id) makes a duplicate insert fail with
// gorm.ErrDuplicatedKey; the caller translates that into its own error.
func (r *Repository) InsertVote(ctx context.Context, vote *models.Vote) error {
	return r.db.WithContext(ctx).Create(vote).Error
}

// ComputeTally recomputes the tally from the vote rows. Run it on the
// transaction repository when the result feeds a status transition.
func (r *Repository) ComputeTally(ctx context.Context, proposalID uuid.UUID) (models.Tally, error) {
	var rows []struct {
		Choice models.VoteChoice
		N      int
	}
	err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Select("choice, COUNT(*) AS n").
		Where("proposal_id = ?", proposalID).
		Group("choice").
		Scan(&rows).Error
	if err != nil {
		return models.Tally{}, err
	}

	var tally models.Tally
	for _, row := range rows {
		switch row.Choice {
		case models.VoteChoiceApprove:
			tally.Approves = row.N
		case models.VoteChoiceReject:
			tally.Rejects = row.N
		case models.VoteChoiceAbstain:
			tally.Abstains = row.N
		}
		tally.TotalVoted += row.N
	}
	return tally, nil
}

// MarkStatus moves a still-Active proposal to a terminal status. The
// conditional WHERE makes it idempotent: a second attempt (concurrent vote,
// repeated expiry sweep) affects zero rows and returns false.
func (r *Repository) MarkStatus(ctx context.Context, proposalID uuid.UUID, to models.ProposalStatus) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("id = ? AND status = ?", proposalID, models.ProposalStatusActive).
		Updates(map[string]interface{}{
			"status":     to,
			"decided_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountActiveByTenant counts a tenant's Active proposals.
func (r *Repository) CountActiveByTenant(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("tenant_id = ? AND status = ?", tenantID, models.ProposalStatusActive).
		Count(&count).Error
	return count, err
}

// ListOverdueActive returns Active proposals whose deadline has passed.
// Only still-Active rows come back, which together with MarkStatus makes
// the expiry sweep safe to run twice.
func (r *Repository) ListOverdueActive(ctx context.Context, now time.Time, limit int) ([]*models.Proposal, error) {
	var proposals []*models.Proposal
	err := r.db.WithContext(ctx).
		Where("status = ? AND deadline_at <= ?", models.ProposalStatusActive, now).
		Order("deadline_at ASC").
		Limit(limit).
		Find(&proposals).Error
	if err != nil {
		return nil, err
	}
	return proposals, nil
}

// ListByTenant returns a tenant's proposals, newest first, optionally
// filtered by status.
func (r *Repository) ListByTenant(ctx context.Context, tenantID string, status models.ProposalStatus, limit, offset int) ([]*models.Proposal, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var proposals []*models.Proposal
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&proposals).Error
	if err != nil {
		return nil, err
	}
	return proposals, nil
}

// ListUnvotedMembers returns snapshot members who have not cast a vote yet.
func (r *Repository) ListUnvotedMembers(ctx context.Context, proposalID uuid.UUID) ([]string, error) {
	var voterIDs []string
	err := r.db.WithContext(ctx).
		Model(&models.SnapshotMember{}).
		Where("proposal_id = ?", proposalID).
		Where("voter_id NOT IN (?)",
			r.db.Model(&models.Vote{}).Select("voter_id").Where("proposal_id = ?", proposalID)).
		Order("voter_id ASC").
		Pluck("voter_id", &voterIDs).Error
	if err != nil {
		return nil, err
	}
	return voterIDs, nil
}

// CancelProposal cancels a proposal in a single conditional update: it must
// still be Active, belong to the proposer, and have zero votes. Returns
// whether a row changed; the caller distinguishes the failure reasons with
// a fetch if it cares.
func (r *Repository) CancelProposal(ctx context.Context, proposalID uuid.UUID, proposerID string) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("id = ? AND status = ? AND proposer_id = ?", proposalID, models.ProposalStatusActive, proposerID).
		Where("NOT EXISTS (?)",
			r.db.Model(&models.Vote{}).Select("1").Where("votes.proposal_id = proposals.id")).
		Updates(map[string]interface{}{
			"status":     models.ProposalStatusCancelled,
			"decided_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListReminderDue returns Active proposals inside their reminder window
// that have not been reminded yet.
func (r *Repository) ListReminderDue(ctx context.Context, now time.Time, lead time.Duration, limit int) ([]*models.Proposal, error) {
	var proposals []*models.Proposal
	err := r.db.WithContext(ctx).
		Where("status = ? AND reminder_sent = ?", models.ProposalStatusActive, false).
		Where("deadline_at > ? AND deadline_at <= ?", now, now.Add(lead)).
		Order("deadline_at ASC").
		Limit(limit).
		Find(&proposals).Error
	if err != nil {
		return nil, err
	}
	return proposals, nil
}

// MarkReminderSent flips reminder_sent exactly once per proposal.
func (r *Repository) MarkReminderSent(ctx context.Context, proposalID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("id = ? AND reminder_sent = ?", proposalID, false).
		Update("reminder_sent", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListRoleMembers returns the voter IDs holding any of the given roles in a
// tenant.
func (r *Repository) ListRoleMembers(ctx context.Context, tenantID string, roleIDs []string) ([]string, error) {
	var voterIDs []string
	err := r.db.WithContext(ctx).
		Model(&models.RoleMember{}).
		Where("tenant_id = ? AND role_id IN ?", tenantID, roleIDs).
		Pluck("voter_id", &voterIDs).Error
	if err != nil {
		return nil, err
	}
	return voterIDs, nil
}

// AddRoleMember adds a voter to a role roster.
func (r *Repository) AddRoleMember(ctx context.Context, member *models.RoleMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// RemoveRoleMember deletes a voter from a role roster.
func (r *Repository) RemoveRoleMember(ctx context.Context, tenantID, roleID, voterID string) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND role_id = ? AND voter_id = ?", tenantID, roleID, voterID).
		Delete(&models.RoleMember{}).Error
}
