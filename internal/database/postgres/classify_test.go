package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/lib/pq"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{"bad conn", driver.ErrBadConn, true},
		{"deadline", context.DeadlineExceeded, true},
		{"connection failure", &pq.Error{Code: "08006"}, true},
		{"admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"syntax error", &pq.Error{Code: "42601"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("op", tt.err)
			if got := errors.Is(err, database.ErrStoreUnavailable); got != tt.unavailable {
				t.Errorf("expected unavailable=%v, got %v (%v)", tt.unavailable, got, err)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("classified error must wrap the cause, got %v", err)
			}
		})
	}

	if classify("op", nil) != nil {
		t.Error("expected nil for nil error")
	}
}
