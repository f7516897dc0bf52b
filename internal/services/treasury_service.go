package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"council/internal/models"
	"council/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PassedEffect is the side effect invoked when a proposal transitions to
// Passed. It runs on the same transaction as the transition; returning an
// error rolls the whole transition back.
type PassedEffect interface {
	Execute(ctx context.Context, txRepo *repository.Repository, proposal *models.Proposal) error
}

// TreasuryService moves funds between accounts inside a tenant and acts as
// the PassedEffect for funding proposals.
type TreasuryService struct {
	repo *repository.Repository
}

func NewTreasuryService(repo *repository.Repository) *TreasuryService {
	return &TreasuryService{repo: repo}
}

// Execute transfers the proposal's payload amount from the tenant pool to
// the recipient. A proposal without a transfer payload is a no-op.
func (ts *TreasuryService) Execute(ctx context.Context, txRepo *repository.Repository, proposal *models.Proposal) error {
	if !proposal.HasTransfer() {
		return nil
	}
	err := ts.transfer(ctx, txRepo, proposal.TenantID,
		models.TreasuryOwnerTenant, *proposal.TransferRecipientID,
		*proposal.TransferAmount, &proposal.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSideEffectFailed, err)
	}
	log.Printf("[Treasury] Transferred %s to %s for proposal %s",
		proposal.TransferAmount.String(), *proposal.TransferRecipientID, proposal.ID)
	return nil
}

// Transfer moves funds between two accounts atomically.
func (ts *TreasuryService) Transfer(ctx context.Context, tenantID, fromOwnerID, toOwnerID string, amount decimal.Decimal) error {
	return ts.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		return ts.transfer(ctx, txRepo, tenantID, fromOwnerID, toOwnerID, amount, nil)
	})
}

func (ts *TreasuryService) transfer(ctx context.Context, txRepo *repository.Repository, tenantID, fromOwnerID, toOwnerID string, amount decimal.Decimal, proposalID *uuid.UUID) error {
	if !amount.IsPositive() {
		return fmt.Errorf("transfer amount must be positive, got %s", amount)
	}

	from, err := txRepo.GetAccountForUpdate(ctx, tenantID, fromOwnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("source account %s: %w", fromOwnerID, ErrNotFound)
		}
		return fmt.Errorf("failed to load source account: %w", err)
	}

	if from.Balance.LessThan(amount) {
		return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, from.Balance, amount)
	}

	to, err := txRepo.GetAccountForUpdate(ctx, tenantID, toOwnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("recipient account %s: %w", toOwnerID, ErrNotFound)
		}
		return fmt.Errorf("failed to load recipient account: %w", err)
	}

	from.Balance = from.Balance.Sub(amount)
	to.Balance = to.Balance.Add(amount)

	if err := txRepo.SaveAccount(ctx, from); err != nil {
		return fmt.Errorf("failed to debit source: %w", err)
	}
	if err := txRepo.SaveAccount(ctx, to); err != nil {
		return fmt.Errorf("failed to credit recipient: %w", err)
	}

	record := &models.TransferRecord{
		ID:          uuid.New(),
		TenantID:    tenantID,
		ProposalID:  proposalID,
		FromOwnerID: fromOwnerID,
		ToOwnerID:   toOwnerID,
		Amount:      amount,
	}
	if err := txRepo.CreateTransferRecord(ctx, record); err != nil {
		return fmt.Errorf("failed to record transfer: %w", err)
	}
	return nil
}
