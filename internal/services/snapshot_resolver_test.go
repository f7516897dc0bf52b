package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type fakeDirectory struct {
	rosters map[string][]string
}

func (f *fakeDirectory) ResolveMembers(_ context.Context, _ string, roleIDs []string) ([]string, error) {
	var out []string
	for _, roleID := range roleIDs {
		out = append(out, f.rosters[roleID]...)
	}
	return out, nil
}

func TestResolveDedupsAndSorts(t *testing.T) {
	resolver := NewSnapshotResolver(&fakeDirectory{rosters: map[string][]string{
		"council": {"C", "A", "B"},
		"elders":  {"B", "D"},
	}})

	electorate, err := resolver.Resolve(context.Background(), "guild-1",
		[]string{"E", "A", "", "E"}, []string{"council", "elders"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := []string{"A", "B", "C", "D", "E"}
	if !reflect.DeepEqual(electorate, want) {
		t.Errorf("expected %v, got %v", want, electorate)
	}
}

func TestResolveEmptyElectorate(t *testing.T) {
	resolver := NewSnapshotResolver(&fakeDirectory{rosters: map[string][]string{}})

	_, err := resolver.Resolve(context.Background(), "guild-1", []string{""}, []string{"ghost-role"})
	if !errors.Is(err, ErrEmptyElectorate) {
		t.Errorf("expected ErrEmptyElectorate, got %v", err)
	}
}

func TestThresholdPolicy(t *testing.T) {
	tests := []struct {
		name      string
		fixed     *int
		snapshotN int
		want      int
		wantErr   bool
	}{
		{"majority of 3", nil, 3, 2, false},
		{"majority of 4", nil, 4, 3, false},
		{"majority of 1", nil, 1, 1, false},
		{"fixed in range", intPtr(3), 5, 3, false},
		{"fixed equals n", intPtr(5), 5, 5, false},
		{"fixed too high", intPtr(6), 5, 0, true},
		{"fixed zero", intPtr(0), 5, 0, true},
	}

	for _, tt := range tests {
		got, err := ThresholdPolicy{Fixed: tt.fixed}.Threshold(tt.snapshotN)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidThreshold) {
				t.Errorf("%s: expected ErrInvalidThreshold, got %v", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}
