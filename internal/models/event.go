package models

import (
	"github.com/google/uuid"
)

type EventKind string

const (
	EventKindProposalCreated       EventKind = "proposal_created"
	EventKindVoteCast              EventKind = "vote_cast"
	EventKindProposalStatusChanged EventKind = "proposal_status_changed"
	EventKindVoteReminder          EventKind = "vote_reminder"
)

// OutcomeEvent is the fire-and-forget notification emitted by the voting
// engine. Delivery failure never affects the transaction that produced it.
type OutcomeEvent struct {
	Kind       EventKind      `json:"kind"`
	TenantID   string         `json:"tenant_id"`
	ProposalID uuid.UUID      `json:"proposal_id"`
	Title      string         `json:"title,omitempty"`
	Status     ProposalStatus `json:"status"`
	// VoterIDs carries the reminder targets for vote_reminder events.
	VoterIDs []string `json:"voter_ids,omitempty"`
}
