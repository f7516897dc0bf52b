package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"council/internal/models"
	"council/internal/notify"
	"council/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultMaxActiveProposals bounds a tenant's concurrent Active proposals
// so the decision backlog stays small.
const DefaultMaxActiveProposals = 5

type VotingService struct {
	repo      *repository.Repository
	resolver  *SnapshotResolver
	notifier  notify.Notifier
	effect    PassedEffect
	maxActive int
}

func NewVotingService(
	repo *repository.Repository,
	resolver *SnapshotResolver,
	notifier notify.Notifier,
	effect PassedEffect,
	maxActive int,
) *VotingService {
	if maxActive <= 0 {
		maxActive = DefaultMaxActiveProposals
	}
	return &VotingService{
		repo:      repo,
		resolver:  resolver,
		notifier:  notifier,
		effect:    effect,
		maxActive: maxActive,
	}
}

// CreateProposal captures the electorate snapshot, derives the threshold and
// persists proposal + snapshot atomically, enforcing the per-tenant cap
// inside the same transaction.
func (vs *VotingService) CreateProposal(
	ctx context.Context,
	proposerID string,
	req *models.CreateProposalRequest,
) (*models.Proposal, error) {
	electorate, err := vs.resolver.Resolve(ctx, req.TenantID, req.VoterIDs, req.RoleIDs)
	if err != nil {
		return nil, err
	}

	policy := ThresholdPolicy{Fixed: req.Threshold}
	threshold, err := policy.Threshold(len(electorate))
	if err != nil {
		return nil, err
	}

	if (req.TransferRecipientID == nil) != (req.TransferAmount == nil) {
		return nil, fmt.Errorf("transfer payload requires both recipient and amount")
	}

	proposal := &models.Proposal{
		ID:                  uuid.New(),
		TenantID:            req.TenantID,
		ProposerID:          proposerID,
		Title:               req.Title,
		Description:         req.Description,
		SnapshotN:           len(electorate),
		ThresholdT:          threshold,
		Status:              models.ProposalStatusActive,
		DeadlineAt:          time.Now().Add(time.Duration(req.DeadlineMinutes) * time.Minute),
		TransferRecipientID: req.TransferRecipientID,
		TransferAmount:      req.TransferAmount,
	}

	err = vs.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		// Lock the tenant row so two concurrent creations cannot both
		// pass the cap check.
		if _, err := txRepo.GetTenantForUpdate(ctx, req.TenantID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("tenant %s: %w", req.TenantID, ErrNotFound)
			}
			return fmt.Errorf("failed to load tenant: %w", err)
		}

		active, err := txRepo.CountActiveByTenant(ctx, req.TenantID)
		if err != nil {
			return fmt.Errorf("failed to count active proposals: %w", err)
		}
		if active >= int64(vs.maxActive) {
			return fmt.Errorf("%w: tenant %s has %d active", ErrTooManyActive, req.TenantID, active)
		}

		if err := txRepo.CreateProposal(ctx, proposal, electorate); err != nil {
			return fmt.Errorf("failed to create proposal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Voting] Created proposal %s for tenant %s (n=%d, t=%d)",
		proposal.ID, proposal.TenantID, proposal.SnapshotN, proposal.ThresholdT)
	vs.emit(ctx, models.OutcomeEvent{
		Kind:       models.EventKindProposalCreated,
		TenantID:   proposal.TenantID,
		ProposalID: proposal.ID,
		Title:      proposal.Title,
		Status:     proposal.Status,
	})
	return proposal, nil
}

// CastVote records a write-once ballot and evaluates the transition rule in
// the same transaction as the insert. A vote against an already decided
// proposal is tolerated and echoes the final tally.
func (vs *VotingService) CastVote(
	ctx context.Context,
	proposalID uuid.UUID,
	voterID string,
	choice models.VoteChoice,
) (*models.VoteResult, error) {
	if !choice.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChoice, choice)
	}

	var (
		result     *models.VoteResult
		voteEvent  *models.OutcomeEvent
		transition *models.OutcomeEvent
	)

	err := vs.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		proposal, err := txRepo.GetProposalForUpdate(ctx, proposalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("proposal %s: %w", proposalID, ErrNotFound)
			}
			return fmt.Errorf("failed to load proposal: %w", err)
		}

		if proposal.Status.IsTerminal() {
			tally, err := txRepo.ComputeTally(ctx, proposalID)
			if err != nil {
				return fmt.Errorf("failed to compute tally: %w", err)
			}
			result = &models.VoteResult{
				ProposalID:     proposalID,
				Status:         proposal.Status,
				Tally:          tally,
				AlreadyDecided: true,
			}
			return nil
		}

		eligible, err := txRepo.IsSnapshotMember(ctx, proposalID, voterID)
		if err != nil {
			return fmt.Errorf("failed to check snapshot: %w", err)
		}
		if !eligible {
			return fmt.Errorf("voter %s on proposal %s: %w", voterID, proposalID, ErrNotEligible)
		}

		vote := &models.Vote{
			ID:         uuid.New(),
			ProposalID: proposalID,
			VoterID:    voterID,
			Choice:     choice,
		}
		if err := txRepo.InsertVote(ctx, vote); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("voter %s on proposal %s: %w", voterID, proposalID, ErrAlreadyVoted)
			}
			return fmt.Errorf("failed to insert vote: %w", err)
		}

		tally, err := txRepo.ComputeTally(ctx, proposalID)
		if err != nil {
			return fmt.Errorf("failed to compute tally: %w", err)
		}

		next := evaluateTransition(proposal, tally)
		if next != models.ProposalStatusActive {
			changed, err := txRepo.MarkStatus(ctx, proposalID, next)
			if err != nil {
				return fmt.Errorf("failed to mark status: %w", err)
			}
			if changed {
				if next == models.ProposalStatusPassed && vs.effect != nil {
					if err := vs.effect.Execute(ctx, txRepo, proposal); err != nil {
						return err
					}
				}
				transition = &models.OutcomeEvent{
					Kind:       models.EventKindProposalStatusChanged,
					TenantID:   proposal.TenantID,
					ProposalID: proposal.ID,
					Title:      proposal.Title,
					Status:     next,
				}
			}
		}

		result = &models.VoteResult{
			ProposalID: proposalID,
			Status:     next,
			Tally:      tally,
		}
		voteEvent = &models.OutcomeEvent{
			Kind:       models.EventKindVoteCast,
			TenantID:   proposal.TenantID,
			ProposalID: proposal.ID,
			Title:      proposal.Title,
			Status:     next,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if voteEvent != nil {
		vs.emit(ctx, *voteEvent)
	}
	if transition != nil {
		log.Printf("[Voting] Proposal %s decided: %s (approve=%d reject=%d abstain=%d)",
			result.ProposalID, result.Status, result.Tally.Approves, result.Tally.Rejects, result.Tally.Abstains)
		vs.emit(ctx, *transition)
	}
	return result, nil
}

// CancelProposal withdraws a zero-vote Active proposal. It returns false
// instead of an error when nothing could be cancelled; callers that need
// the reason fetch the proposal first.
func (vs *VotingService) CancelProposal(ctx context.Context, proposalID uuid.UUID, proposerID string) (bool, error) {
	cancelled, err := vs.repo.CancelProposal(ctx, proposalID, proposerID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel proposal: %w", err)
	}
	if !cancelled {
		return false, nil
	}

	log.Printf("[Voting] Proposal %s cancelled by proposer %s", proposalID, proposerID)
	if proposal, err := vs.repo.GetProposalByID(ctx, proposalID); err == nil {
		vs.emit(ctx, models.OutcomeEvent{
			Kind:       models.EventKindProposalStatusChanged,
			TenantID:   proposal.TenantID,
			ProposalID: proposal.ID,
			Title:      proposal.Title,
			Status:     models.ProposalStatusCancelled,
		})
	}
	return true, nil
}

// GetProposal returns a proposal together with its live tally.
func (vs *VotingService) GetProposal(ctx context.Context, proposalID uuid.UUID) (*models.Proposal, models.Tally, error) {
	proposal, err := vs.repo.GetProposalByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.Tally{}, fmt.Errorf("proposal %s: %w", proposalID, ErrNotFound)
		}
		return nil, models.Tally{}, fmt.Errorf("failed to load proposal: %w", err)
	}
	tally, err := vs.repo.ComputeTally(ctx, proposalID)
	if err != nil {
		return nil, models.Tally{}, fmt.Errorf("failed to compute tally: %w", err)
	}
	return proposal, tally, nil
}

// ListTenantProposals returns a tenant's proposals, optionally by status.
func (vs *VotingService) ListTenantProposals(ctx context.Context, tenantID string, status models.ProposalStatus, limit, offset int) ([]*models.Proposal, error) {
	return vs.repo.ListByTenant(ctx, tenantID, status, limit, offset)
}

// ExpireOverdue transitions every Active proposal past its deadline and
// returns how many were moved. Safe to run concurrently with itself: the
// listing only returns still-Active rows and MarkStatus is conditional.
func (vs *VotingService) ExpireOverdue(ctx context.Context) (int, error) {
	overdue, err := vs.repo.ListOverdueActive(ctx, time.Now(), 100)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue proposals: %w", err)
	}

	expired := 0
	for _, candidate := range overdue {
		event, err := vs.expireOne(ctx, candidate.ID)
		if err != nil {
			log.Printf("[Voting] Error expiring proposal %s: %v", candidate.ID, err)
			continue
		}
		if event != nil {
			expired++
			vs.emit(ctx, *event)
		}
	}
	return expired, nil
}

func (vs *VotingService) expireOne(ctx context.Context, proposalID uuid.UUID) (*models.OutcomeEvent, error) {
	var event *models.OutcomeEvent
	err := vs.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		proposal, err := txRepo.GetProposalForUpdate(ctx, proposalID)
		if err != nil {
			return err
		}
		if proposal.Status.IsTerminal() {
			return nil
		}

		tally, err := txRepo.ComputeTally(ctx, proposalID)
		if err != nil {
			return err
		}

		next := expiryStatus(proposal, tally)
		changed, err := txRepo.MarkStatus(ctx, proposalID, next)
		if err != nil || !changed {
			return err
		}
		if next == models.ProposalStatusPassed && vs.effect != nil {
			if err := vs.effect.Execute(ctx, txRepo, proposal); err != nil {
				return err
			}
		}
		event = &models.OutcomeEvent{
			Kind:       models.EventKindProposalStatusChanged,
			TenantID:   proposal.TenantID,
			ProposalID: proposal.ID,
			Title:      proposal.Title,
			Status:     next,
		}
		return nil
	})
	return event, err
}

// RemindPending notifies the still-unvoted members of every Active proposal
// inside its reminder window, at most once per proposal. Returns how many
// reminders went out.
func (vs *VotingService) RemindPending(ctx context.Context, lead time.Duration) (int, error) {
	due, err := vs.repo.ListReminderDue(ctx, time.Now(), lead, 100)
	if err != nil {
		return 0, fmt.Errorf("failed to list reminder candidates: %w", err)
	}

	reminded := 0
	for _, proposal := range due {
		// Flip the flag first so a concurrent sweep sends at most one
		// reminder per proposal.
		changed, err := vs.repo.MarkReminderSent(ctx, proposal.ID)
		if err != nil {
			log.Printf("[Voting] Error marking reminder for proposal %s: %v", proposal.ID, err)
			continue
		}
		if !changed {
			continue
		}

		unvoted, err := vs.repo.ListUnvotedMembers(ctx, proposal.ID)
		if err != nil {
			log.Printf("[Voting] Error listing unvoted members for proposal %s: %v", proposal.ID, err)
			continue
		}
		if len(unvoted) == 0 {
			continue
		}

		vs.emit(ctx, models.OutcomeEvent{
			Kind:       models.EventKindVoteReminder,
			TenantID:   proposal.TenantID,
			ProposalID: proposal.ID,
			Title:      proposal.Title,
			Status:     proposal.Status,
			VoterIDs:   unvoted,
		})
		reminded++
	}
	return reminded, nil
}

// evaluateTransition applies the vote-driven decision rule: pass the instant
// the threshold is met, reject the instant it becomes unreachable even if
// every remaining voter approved.
func evaluateTransition(proposal *models.Proposal, tally models.Tally) models.ProposalStatus {
	if tally.Approves >= proposal.ThresholdT {
		return models.ProposalStatusPassed
	}
	if tally.Approves+tally.Remaining(proposal.SnapshotN) < proposal.ThresholdT {
		return models.ProposalStatusRejected
	}
	return models.ProposalStatusActive
}

// expiryStatus picks the terminal state at deadline: Passed if the threshold
// was met, Rejected if it had already become mathematically unreachable
// (early rejection stays authoritative even when the sweep runs late), and
// Expired for plain insufficient participation.
func expiryStatus(proposal *models.Proposal, tally models.Tally) models.ProposalStatus {
	if tally.Approves >= proposal.ThresholdT {
		return models.ProposalStatusPassed
	}
	if tally.Approves+tally.Remaining(proposal.SnapshotN) < proposal.ThresholdT {
		return models.ProposalStatusRejected
	}
	return models.ProposalStatusExpired
}

// emit delivers an event without letting notifier failures affect callers.
func (vs *VotingService) emit(ctx context.Context, event models.OutcomeEvent) {
	if vs.notifier == nil {
		return
	}
	if err := vs.notifier.Publish(ctx, event); err != nil {
		log.Printf("[Voting] Notifier error for %s on proposal %s: %v", event.Kind, event.ProposalID, err)
	}
}
