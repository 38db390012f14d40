package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{"deadline", context.DeadlineExceeded, true},
		{"disconnected", mongo.ErrClientDisconnected, true},
		{"no documents", mongo.ErrNoDocuments, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify("op", tt.err)
			if errors.Is(got, database.ErrStoreUnavailable) != tt.unavailable {
				t.Errorf("classify(%v) unavailable = %v, want %v", tt.err, !tt.unavailable, tt.unavailable)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("classify(%v) lost the cause: %v", tt.err, got)
			}
		})
	}
	if classify("op", nil) != nil {
		t.Error("classify(nil) should be nil")
	}
}

func TestOpen_RequiresURI(t *testing.T) {
	if _, err := Open(context.Background(), &config.MongoConfig{}); err == nil {
		t.Error("Expected error without URI")
	}
	if _, err := Open(context.Background(), nil); err == nil {
		t.Error("Expected error with nil config")
	}
}

func TestDocConversion(t *testing.T) {
	ts := time.Date(2026, 3, 2, 8, 0, 0, 0, time.FixedZone("CET", 3600))

	id := (&identityDoc{ID: "u1", IdentityKey: "E1", DisplayName: "Ann", FeatureVector: []float32{1, 2}, Dim: 2, CreatedAt: ts}).toIdentity()
	if id.IdentityKey != "E1" || id.DisplayName != "Ann" || id.Dim != 2 || len(id.FeatureVector) != 2 {
		t.Errorf("Unexpected identity %+v", id)
	}
	if id.CreatedAt.Location() != time.UTC || !id.CreatedAt.Equal(ts) {
		t.Errorf("Expected UTC timestamp equal to input, got %v", id.CreatedAt)
	}

	loc := &database.Location{Latitude: 1, Longitude: 2}
	ev := (&attendanceDoc{ID: "a1", IdentityKey: "E1", Timestamp: ts, Method: database.MethodQR, Location: loc}).toEvent()
	if ev.ID != "a1" || ev.Method != database.MethodQR || ev.Location != loc || ev.Timestamp.Location() != time.UTC {
		t.Errorf("Unexpected event %+v", ev)
	}
}
