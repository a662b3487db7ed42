package postgres

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"gymflow/backend/internal/store"
)

func TestLockOrder(t *testing.T) {
	keys := []string{"trainer:T2", "location:L1", "trainer:T1", "trainer:T2"}
	got := lockOrder(keys)

	want := []string{"location:L1", "trainer:T1", "trainer:T2"}
	if !slices.Equal(got, want) {
		t.Fatalf("lockOrder = %v, want %v", got, want)
	}
	if keys[0] != "trainer:T2" {
		t.Fatalf("lockOrder mutated its input: %v", keys)
	}
}

func TestMapWriteError(t *testing.T) {
	other := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "exclusion violation",
			err:  &pgconn.PgError{Code: "23P01", ConstraintName: resourceOverlapConstraint},
			want: store.ErrConflict,
		},
		{
			name: "wrapped exclusion violation",
			err:  fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23P01", ConstraintName: resourceOverlapConstraint}),
			want: store.ErrConflict,
		},
		{
			name: "other constraint",
			err:  &pgconn.PgError{Code: "23514", ConstraintName: "training_sessions_interval"},
		},
		{
			name: "plain error",
			err:  other,
			want: other,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapWriteError(tt.err)
			if tt.want == nil {
				if errors.Is(got, store.ErrConflict) {
					t.Fatalf("mapWriteError(%v) = ErrConflict, want passthrough", tt.err)
				}
				if got != tt.err {
					t.Fatalf("mapWriteError(%v) = %v, want original error", tt.err, got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Fatalf("mapWriteError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
