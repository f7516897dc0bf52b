package models

import (
	"time"
)

// Tenant is an isolated governance context (one community). All proposals,
// snapshots and the active-proposal cap are scoped to a tenant. Proposal
// creation locks this row to serialize the cap check.
type Tenant struct {
	ID        string    `gorm:"size:64;primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Tenant) TableName() string {
	return "tenants"
}

// RoleMember maps a voter to a role within a tenant. The snapshot resolver
// reads this table at proposal creation; later edits never affect an
// existing snapshot.
type RoleMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  string    `gorm:"size:64;not null;uniqueIndex:idx_role_members_unique" json:"tenant_id"`
	RoleID    string    `gorm:"size:64;not null;uniqueIndex:idx_role_members_unique" json:"role_id"`
	VoterID   string    `gorm:"size:64;not null;uniqueIndex:idx_role_members_unique" json:"voter_id"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (RoleMember) TableName() string {
	return "role_members"
}

// RegisterTenantRequest is the payload for POST /api/tenants.
type RegisterTenantRequest struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"name" binding:"required"`
}
