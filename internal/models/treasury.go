package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TreasuryAccount holds a member's balance within a tenant. The tenant
// itself owns the account with OwnerID equal to TreasuryOwnerTenant.
type TreasuryAccount struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	TenantID  string          `gorm:"size:64;not null;uniqueIndex:idx_treasury_tenant_owner" json:"tenant_id"`
	OwnerID   string          `gorm:"size:64;not null;uniqueIndex:idx_treasury_tenant_owner" json:"owner_id"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"balance"`
	CreatedAt time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (TreasuryAccount) TableName() string {
	return "treasury_accounts"
}

// TreasuryOwnerTenant is the OwnerID of the tenant's own pool account,
// the source of proposal-driven transfers.
const TreasuryOwnerTenant = "TENANT"

// TransferRecord is the audit row written for every executed transfer.
type TransferRecord struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    string          `gorm:"size:64;not null;index" json:"tenant_id"`
	ProposalID  *uuid.UUID      `gorm:"type:uuid;index" json:"proposal_id,omitempty"`
	FromOwnerID string          `gorm:"size:64;not null" json:"from_owner_id"`
	ToOwnerID   string          `gorm:"size:64;not null" json:"to_owner_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	CreatedAt   time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (TransferRecord) TableName() string {
	return "transfer_records"
}
