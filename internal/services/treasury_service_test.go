package services

import (
	"context"
	"errors"
	"testing"

	"council/internal/models"
	"council/internal/repository"

	"github.com/shopspring/decimal"
)

func TestTransfer(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	treasury := NewTreasuryService(repo)
	ctx := context.Background()

	if _, err := repo.EnsureAccount(ctx, "guild-1", models.TreasuryOwnerTenant, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	if _, err := repo.EnsureAccount(ctx, "guild-1", "A", decimal.Zero); err != nil {
		t.Fatalf("failed to create recipient: %v", err)
	}

	err := treasury.Transfer(ctx, "guild-1", models.TreasuryOwnerTenant, "A", decimal.NewFromInt(40))
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}

	pool, _ := repo.GetAccount(ctx, "guild-1", models.TreasuryOwnerTenant)
	if !pool.Balance.Equal(decimal.NewFromInt(60)) {
		t.Errorf("expected pool 60, got %s", pool.Balance)
	}
	account, _ := repo.GetAccount(ctx, "guild-1", "A")
	if !account.Balance.Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected recipient 40, got %s", account.Balance)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	treasury := NewTreasuryService(repo)
	ctx := context.Background()

	if _, err := repo.EnsureAccount(ctx, "guild-1", models.TreasuryOwnerTenant, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	if _, err := repo.EnsureAccount(ctx, "guild-1", "A", decimal.Zero); err != nil {
		t.Fatalf("failed to create recipient: %v", err)
	}

	err := treasury.Transfer(ctx, "guild-1", models.TreasuryOwnerTenant, "A", decimal.NewFromInt(40))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// Nothing moved.
	pool, _ := repo.GetAccount(ctx, "guild-1", models.TreasuryOwnerTenant)
	if !pool.Balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("pool balance changed: %s", pool.Balance)
	}
}

func TestTransferMissingAccount(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	treasury := NewTreasuryService(repo)
	ctx := context.Background()

	if _, err := repo.EnsureAccount(ctx, "guild-1", models.TreasuryOwnerTenant, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	err := treasury.Transfer(ctx, "guild-1", models.TreasuryOwnerTenant, "ghost", decimal.NewFromInt(5))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	err = treasury.Transfer(ctx, "guild-1", models.TreasuryOwnerTenant, models.TreasuryOwnerTenant, decimal.NewFromInt(0))
	if err == nil {
		t.Fatalf("expected error for non-positive amount")
	}
}
