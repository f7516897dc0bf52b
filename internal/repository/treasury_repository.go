package repository

import (
	"context"

	"council/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// EnsureAccount creates an account with a starting balance if it does not
// exist yet, and returns it either way.
func (r *Repository) EnsureAccount(ctx context.Context, tenantID, ownerID string, initial decimal.Decimal) (*models.TreasuryAccount, error) {
	account := models.TreasuryAccount{
		TenantID: tenantID,
		OwnerID:  ownerID,
		Balance:  initial,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&account).Error
	if err != nil {
		return nil, err
	}
	return r.GetAccount(ctx, tenantID, ownerID)
}

// GetAccount retrieves an account by tenant and owner.
func (r *Repository) GetAccount(ctx context.Context, tenantID, ownerID string) (*models.TreasuryAccount, error) {
	var account models.TreasuryAccount
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND owner_id = ?", tenantID, ownerID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountForUpdate locks the account row for the enclosing transaction.
func (r *Repository) GetAccountForUpdate(ctx context.Context, tenantID, ownerID string) (*models.TreasuryAccount, error) {
	var account models.TreasuryAccount
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND owner_id = ?", tenantID, ownerID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// SaveAccount persists an updated account balance.
func (r *Repository) SaveAccount(ctx context.Context, account *models.TreasuryAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}

// CreateTransferRecord writes the audit row for an executed transfer.
func (r *Repository) CreateTransferRecord(ctx context.Context, record *models.TransferRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}
