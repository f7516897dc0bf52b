package services

import (
	"context"
	"fmt"
	"sort"

	"council/internal/repository"
)

// RoleDirectory resolves role IDs to the voters currently holding them.
// It is consulted exactly once, at proposal creation; the resulting snapshot
// never changes afterwards.
type RoleDirectory interface {
	ResolveMembers(ctx context.Context, tenantID string, roleIDs []string) ([]string, error)
}

// DBRoleDirectory reads role rosters from the role_members table.
type DBRoleDirectory struct {
	repo *repository.Repository
}

func NewDBRoleDirectory(repo *repository.Repository) *DBRoleDirectory {
	return &DBRoleDirectory{repo: repo}
}

func (d *DBRoleDirectory) ResolveMembers(ctx context.Context, tenantID string, roleIDs []string) ([]string, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	return d.repo.ListRoleMembers(ctx, tenantID, roleIDs)
}

// ThresholdPolicy decides how many approvals a proposal needs. A nil Fixed
// means simple majority: floor(n/2) + 1.
type ThresholdPolicy struct {
	Fixed *int
}

// Threshold computes threshold_t for an electorate of size snapshotN.
func (p ThresholdPolicy) Threshold(snapshotN int) (int, error) {
	if p.Fixed != nil {
		if *p.Fixed < 1 || *p.Fixed > snapshotN {
			return 0, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidThreshold, *p.Fixed, snapshotN)
		}
		return *p.Fixed, nil
	}
	return snapshotN/2 + 1, nil
}

// SnapshotResolver captures the fixed, deduplicated electorate for a new
// proposal from explicit voter IDs and/or role rosters.
type SnapshotResolver struct {
	directory RoleDirectory
}

func NewSnapshotResolver(directory RoleDirectory) *SnapshotResolver {
	return &SnapshotResolver{directory: directory}
}

// Resolve returns the sorted, deduplicated union of the explicit voter IDs
// and the members of the given roles. An empty result is ErrEmptyElectorate.
func (sr *SnapshotResolver) Resolve(ctx context.Context, tenantID string, voterIDs, roleIDs []string) ([]string, error) {
	seen := make(map[string]struct{}, len(voterIDs))
	for _, id := range voterIDs {
		if id == "" {
			continue
		}
		seen[id] = struct{}{}
	}

	if len(roleIDs) > 0 {
		roleVoters, err := sr.directory.ResolveMembers(ctx, tenantID, roleIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve role members: %w", err)
		}
		for _, id := range roleVoters {
			if id == "" {
				continue
			}
			seen[id] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil, ErrEmptyElectorate
	}

	electorate := make([]string, 0, len(seen))
	for id := range seen {
		electorate = append(electorate, id)
	}
	sort.Strings(electorate)
	return electorate, nil
}
