package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"council/internal/models"
	"council/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TenantService registers governance contexts and manages role rosters.
type TenantService struct {
	repo        *repository.Repository
	initialPool decimal.Decimal
}

func NewTenantService(repo *repository.Repository, initialPool decimal.Decimal) *TenantService {
	return &TenantService{repo: repo, initialPool: initialPool}
}

// Register creates a tenant together with its treasury pool account.
func (ts *TenantService) Register(ctx context.Context, req *models.RegisterTenantRequest) (*models.Tenant, error) {
	tenant := &models.Tenant{
		ID:   req.ID,
		Name: req.Name,
	}
	err := ts.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.CreateTenant(ctx, tenant); err != nil {
			return fmt.Errorf("failed to create tenant: %w", err)
		}
		if _, err := txRepo.EnsureAccount(ctx, tenant.ID, models.TreasuryOwnerTenant, ts.initialPool); err != nil {
			return fmt.Errorf("failed to create treasury pool: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Tenant] Registered tenant %s (%s)", tenant.ID, tenant.Name)
	return tenant, nil
}

// Get retrieves a tenant by ID.
func (ts *TenantService) Get(ctx context.Context, tenantID string) (*models.Tenant, error) {
	tenant, err := ts.repo.GetTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tenant %s: %w", tenantID, ErrNotFound)
		}
		return nil, err
	}
	return tenant, nil
}

// AddRoleMember puts a voter on a role roster. This only affects proposals
// created afterwards; existing snapshots are immutable.
func (ts *TenantService) AddRoleMember(ctx context.Context, tenantID, roleID, voterID string) error {
	member := &models.RoleMember{
		TenantID: tenantID,
		RoleID:   roleID,
		VoterID:  voterID,
	}
	if err := ts.repo.AddRoleMember(ctx, member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("failed to add role member: %w", err)
	}
	return nil
}

// RemoveRoleMember takes a voter off a role roster.
func (ts *TenantService) RemoveRoleMember(ctx context.Context, tenantID, roleID, voterID string) error {
	return ts.repo.RemoveRoleMember(ctx, tenantID, roleID, voterID)
}
