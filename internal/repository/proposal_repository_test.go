package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"council/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRepo(t *testing.T) *Repository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Tenant{},
		&models.Proposal{},
		&models.SnapshotMember{},
		&models.Vote{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return NewRepository(db)
}

func seedProposal(t *testing.T, repo *Repository, deadline time.Time, voters []string) *models.Proposal {
	ctx := context.Background()
	proposal := &models.Proposal{
		ID:         uuid.New(),
		TenantID:   "guild-1",
		ProposerID: "proposer",
		Title:      "Seed",
		SnapshotN:  len(voters),
		ThresholdT: 1,
		Status:     models.ProposalStatusActive,
		DeadlineAt: deadline,
	}
	err := repo.Transaction(ctx, func(txRepo *Repository) error {
		return txRepo.CreateProposal(ctx, proposal, voters)
	})
	if err != nil {
		t.Fatalf("failed to seed proposal: %v", err)
	}
	return proposal
}

func TestInsertVoteUniqueConstraint(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	proposal := seedProposal(t, repo, time.Now().Add(time.Hour), []string{"A", "B"})

	vote := &models.Vote{ID: uuid.New(), ProposalID: proposal.ID, VoterID: "A", Choice: models.VoteChoiceApprove}
	if err := repo.InsertVote(ctx, vote); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	// The composite unique index must reject the second ballot at the
	// database, regardless of choice.
	dup := &models.Vote{ID: uuid.New(), ProposalID: proposal.ID, VoterID: "A", Choice: models.VoteChoiceReject}
	err := repo.InsertVote(ctx, dup)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected gorm.ErrDuplicatedKey, got %v", err)
	}

	// Same voter on another proposal is fine.
	other := seedProposal(t, repo, time.Now().Add(time.Hour), []string{"A"})
	if err := repo.InsertVote(ctx, &models.Vote{ID: uuid.New(), ProposalID: other.ID, VoterID: "A", Choice: models.VoteChoiceApprove}); err != nil {
		t.Fatalf("vote on second proposal failed: %v", err)
	}
}

func TestMarkStatusIdempotent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	proposal := seedProposal(t, repo, time.Now().Add(time.Hour), []string{"A"})

	changed, err := repo.MarkStatus(ctx, proposal.ID, models.ProposalStatusPassed)
	if err != nil || !changed {
		t.Fatalf("first MarkStatus: changed=%v err=%v", changed, err)
	}

	// Terminal rows never move again, not even to another terminal state.
	changed, err = repo.MarkStatus(ctx, proposal.ID, models.ProposalStatusExpired)
	if err != nil {
		t.Fatalf("second MarkStatus errored: %v", err)
	}
	if changed {
		t.Errorf("second MarkStatus changed a terminal row")
	}

	got, err := repo.GetProposalByID(ctx, proposal.ID)
	if err != nil {
		t.Fatalf("GetProposalByID failed: %v", err)
	}
	if got.Status != models.ProposalStatusPassed {
		t.Errorf("expected PASSED, got %s", got.Status)
	}
	if got.DecidedAt == nil {
		t.Errorf("expected decided_at to be set")
	}
}

func TestListOverdueActive(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	overdue := seedProposal(t, repo, time.Now().Add(-time.Minute), []string{"A"})
	seedProposal(t, repo, time.Now().Add(time.Hour), []string{"A"})
	decided := seedProposal(t, repo, time.Now().Add(-time.Minute), []string{"A"})
	if _, err := repo.MarkStatus(ctx, decided.ID, models.ProposalStatusRejected); err != nil {
		t.Fatalf("MarkStatus failed: %v", err)
	}

	listed, err := repo.ListOverdueActive(ctx, time.Now(), 100)
	if err != nil {
		t.Fatalf("ListOverdueActive failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != overdue.ID {
		t.Errorf("expected only the overdue Active proposal, got %d rows", len(listed))
	}
}

func TestListUnvotedMembers(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	proposal := seedProposal(t, repo, time.Now().Add(time.Hour), []string{"A", "B", "C"})

	if err := repo.InsertVote(ctx, &models.Vote{ID: uuid.New(), ProposalID: proposal.ID, VoterID: "B", Choice: models.VoteChoiceAbstain}); err != nil {
		t.Fatalf("InsertVote failed: %v", err)
	}

	unvoted, err := repo.ListUnvotedMembers(ctx, proposal.ID)
	if err != nil {
		t.Fatalf("ListUnvotedMembers failed: %v", err)
	}
	if len(unvoted) != 2 || unvoted[0] != "A" || unvoted[1] != "C" {
		t.Errorf("expected [A C], got %v", unvoted)
	}
}

func TestCancelProposalConditions(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	clean := seedProposal(t, repo, time.Now().Add(time.Hour), []string{"A"})
	voted := seedProposal(t, repo, time.Now().Add(time.Hour), []string{"A"})
	if err := repo.InsertVote(ctx, &models.Vote{ID: uuid.New(), ProposalID: voted.ID, VoterID: "A", Choice: models.VoteChoiceApprove}); err != nil {
		t.Fatalf("InsertVote failed: %v", err)
	}

	if ok, err := repo.CancelProposal(ctx, clean.ID, "somebody-else"); err != nil || ok {
		t.Errorf("wrong proposer cancel: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.CancelProposal(ctx, voted.ID, "proposer"); err != nil || ok {
		t.Errorf("cancel with votes on record: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.CancelProposal(ctx, clean.ID, "proposer"); err != nil || !ok {
		t.Errorf("valid cancel failed: ok=%v err=%v", ok, err)
	}

	// Cancel is not retryable once terminal.
	if ok, err := repo.CancelProposal(ctx, clean.ID, "proposer"); err != nil || ok {
		t.Errorf("repeat cancel: ok=%v err=%v", ok, err)
	}
}

func TestMarkReminderSentOnce(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	proposal := seedProposal(t, repo, time.Now().Add(30*time.Minute), []string{"A"})

	due, err := repo.ListReminderDue(ctx, time.Now(), time.Hour, 100)
	if err != nil {
		t.Fatalf("ListReminderDue failed: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected 1 due proposal, got %d", len(due))
	}

	if ok, err := repo.MarkReminderSent(ctx, proposal.ID); err != nil || !ok {
		t.Fatalf("first MarkReminderSent: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.MarkReminderSent(ctx, proposal.ID); err != nil || ok {
		t.Errorf("second MarkReminderSent: ok=%v err=%v", ok, err)
	}

	due, err = repo.ListReminderDue(ctx, time.Now(), time.Hour, 100)
	if err != nil {
		t.Fatalf("second ListReminderDue failed: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("reminded proposal still listed as due")
	}
}
