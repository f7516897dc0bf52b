package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProposalStatus string

const (
	ProposalStatusActive    ProposalStatus = "ACTIVE"
	ProposalStatusPassed    ProposalStatus = "PASSED"
	ProposalStatusRejected  ProposalStatus = "REJECTED"
	ProposalStatusExpired   ProposalStatus = "EXPIRED"
	ProposalStatusCancelled ProposalStatus = "CANCELLED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s ProposalStatus) IsTerminal() bool {
	return s != ProposalStatusActive
}

type VoteChoice string

const (
	VoteChoiceApprove VoteChoice = "APPROVE"
	VoteChoiceReject  VoteChoice = "REJECT"
	VoteChoiceAbstain VoteChoice = "ABSTAIN"
)

// Valid reports whether the choice is one of the three accepted values.
func (c VoteChoice) Valid() bool {
	switch c {
	case VoteChoiceApprove, VoteChoiceReject, VoteChoiceAbstain:
		return true
	}
	return false
}

// Proposal represents a time-boxed decision put to a tenant's voters.
// SnapshotN and ThresholdT are fixed at creation and never recomputed.
type Proposal struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID     string         `gorm:"size:64;not null;index" json:"tenant_id"`
	ProposerID   string         `gorm:"size:64;not null;index" json:"proposer_id"`
	Title        string         `gorm:"size:500;not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	SnapshotN    int            `gorm:"not null" json:"snapshot_n"`
	ThresholdT   int            `gorm:"not null" json:"threshold_t"`
	Status       ProposalStatus `gorm:"size:20;not null;default:ACTIVE;index:idx_proposals_status_deadline" json:"status"`
	DeadlineAt   time.Time      `gorm:"not null;index:idx_proposals_status_deadline" json:"deadline_at"`
	ReminderSent bool           `gorm:"not null;default:false" json:"reminder_sent"`

	// Optional funds-transfer payload executed when the proposal passes.
	TransferRecipientID *string          `gorm:"size:64" json:"transfer_recipient_id,omitempty"`
	TransferAmount      *decimal.Decimal `gorm:"type:decimal(20,8)" json:"transfer_amount,omitempty"`

	CreatedAt time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}

func (Proposal) TableName() string {
	return "proposals"
}

// HasTransfer reports whether the proposal carries a funds-transfer payload.
func (p *Proposal) HasTransfer() bool {
	return p.TransferRecipientID != nil && p.TransferAmount != nil
}

// SnapshotMember is one voter in a proposal's immutable eligibility snapshot.
type SnapshotMember struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProposalID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_snapshot_proposal_voter" json:"proposal_id"`
	VoterID    string    `gorm:"size:64;not null;uniqueIndex:idx_snapshot_proposal_voter" json:"voter_id"`
	CreatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (SnapshotMember) TableName() string {
	return "snapshot_members"
}

// Vote is a write-once ballot. The composite unique index on
// (proposal_id, voter_id) is the serialization point for duplicate votes.
type Vote struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProposalID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_votes_proposal_voter" json:"proposal_id"`
	VoterID    string     `gorm:"size:64;not null;uniqueIndex:idx_votes_proposal_voter" json:"voter_id"`
	Choice     VoteChoice `gorm:"size:20;not null" json:"choice"`
	CreatedAt  time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Vote) TableName() string {
	return "votes"
}

// Tally is derived from the vote rows and never stored.
type Tally struct {
	Approves   int `json:"approves"`
	Rejects    int `json:"rejects"`
	Abstains   int `json:"abstains"`
	TotalVoted int `json:"total_voted"`
}

// Remaining returns the number of snapshot members who have not voted yet.
func (t Tally) Remaining(snapshotN int) int {
	return snapshotN - t.TotalVoted
}

// CreateProposalRequest is the payload for POST /api/proposals. Voters may be
// given explicitly, by role, or both; the union is deduplicated.
type CreateProposalRequest struct {
	TenantID        string   `json:"tenant_id" binding:"required"`
	Title           string   `json:"title" binding:"required"`
	Description     string   `json:"description"`
	VoterIDs        []string `json:"voter_ids"`
	RoleIDs         []string `json:"role_ids"`
	DeadlineMinutes int      `json:"deadline_minutes" binding:"required,min=1"`
	Threshold       *int     `json:"threshold"`

	TransferRecipientID *string          `json:"transfer_recipient_id"`
	TransferAmount      *decimal.Decimal `json:"transfer_amount"`
}

// CastVoteRequest is the payload for POST /api/proposals/:id/votes.
type CastVoteRequest struct {
	Choice VoteChoice `json:"choice" binding:"required"`
}

// VoteResult is what CastVote returns: the committed tally and the status it
// implies, observed inside the same transaction as the insert.
type VoteResult struct {
	ProposalID uuid.UUID      `json:"proposal_id"`
	Status     ProposalStatus `json:"status"`
	Tally      Tally          `json:"tally"`
	// AlreadyDecided is set when the request arrived after the proposal
	// reached a terminal status and was tolerated as a no-op.
	AlreadyDecided bool `json:"already_decided,omitempty"`
}
