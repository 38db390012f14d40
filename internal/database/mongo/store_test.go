//go:build integration

package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestContainer(t *testing.T) (*Store, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor: wait.ForLog("Waiting for connections").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	store, err := Open(ctx, &config.MongoConfig{
		URI:         fmt.Sprintf("mongodb://%s:%s", host, port.Port()),
		Database:    "attendance_test",
		MinPoolSize: 1,
		MaxPoolSize: 10,
		UsersColl:   "users",
		AttendColl:  "attendance",
		TimeoutSecs: 15,
	})
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to open store: %v", err)
	}

	cleanup := func() {
		store.Close()
		container.Terminate(ctx)
	}
	return store, cleanup
}

func newIdentity(key string, created time.Time) *database.Identity {
	return &database.Identity{
		ID:            uuid.NewString(),
		IdentityKey:   key,
		DisplayName:   "Person " + key,
		FeatureVector: []float32{0.25, -1, 3.5},
		Strategy:      "landmark",
		Dim:           3,
		CreatedAt:     created.UTC().Truncate(time.Millisecond),
	}
}

func TestStore_Identities(t *testing.T) {
	store, cleanup := setupTestContainer(t)
	if store == nil {
		return
	}
	defer cleanup()
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	want := newIdentity("E100", base)
	if err := store.CreateIdentity(ctx, want); err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}

	got, err := store.GetIdentity(ctx, "E100")
	if err != nil || got == nil {
		t.Fatalf("GetIdentity: %v, %v", got, err)
	}
	if got.ID != want.ID || !got.CreatedAt.Equal(want.CreatedAt) || got.FeatureVector[1] != -1 {
		t.Errorf("Identity did not round-trip: %+v", got)
	}

	if got, err := store.GetIdentity(ctx, "nobody"); err != nil || got != nil {
		t.Errorf("Expected nil, nil; got %v, %v", got, err)
	}

	if err := store.CreateIdentity(ctx, newIdentity("E100", base)); !errors.Is(err, database.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.CreateIdentity(ctx, newIdentity("E200", base.Add(time.Minute)))
		}()
	}
	wg.Wait()
	close(results)
	ok := 0
	for err := range results {
		if err == nil {
			ok++
		} else if !errors.Is(err, database.ErrDuplicateKey) {
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("Expected exactly one insert to win, got %d", ok)
	}

	list, err := store.ListIdentities(ctx)
	if err != nil {
		t.Fatalf("ListIdentities: %v", err)
	}
	if len(list) != 2 || list[0].IdentityKey != "E100" || list[1].IdentityKey != "E200" {
		t.Errorf("Unexpected order: %v", list)
	}
	if n, err := store.CountIdentities(ctx); err != nil || n != 2 {
		t.Errorf("Expected count 2, got %d (%v)", n, err)
	}
}

func TestStore_Attendance(t *testing.T) {
	store, cleanup := setupTestContainer(t)
	if store == nil {
		return
	}
	defer cleanup()
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	if err := store.CreateIdentity(ctx, newIdentity("E100", base)); err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}

	events := []database.AttendanceEvent{
		{ID: "01HQ0000000000000000000001", IdentityKey: "E100", Timestamp: base, Method: database.MethodFace, Verified: true, Confidence: 0.9},
		{ID: "01HQ0000000000000000000002", IdentityKey: "E100", Timestamp: base.Add(time.Hour), Method: database.MethodQR, Verified: true,
			Location: &database.Location{Latitude: 50.08, Longitude: 14.42}},
	}
	for i := range events {
		if err := store.AppendAttendance(ctx, &events[i]); err != nil {
			t.Fatalf("AppendAttendance: %v", err)
		}
	}

	recent, err := store.RecentAttendance(ctx, 1)
	if err != nil {
		t.Fatalf("RecentAttendance: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != events[1].ID || recent[0].Location == nil {
		t.Errorf("Expected newest event with location, got %+v", recent)
	}

	since, err := store.AttendanceSince(ctx, base)
	if err != nil {
		t.Fatalf("AttendanceSince: %v", err)
	}
	if len(since) != 2 || since[0].ID != events[0].ID {
		t.Errorf("Expected both events oldest first, got %+v", since)
	}

	err = store.AppendAttendance(ctx, &database.AttendanceEvent{
		ID: "01HQ0000000000000000000003", IdentityKey: "ghost", Timestamp: base, Method: database.MethodQR,
	})
	if err == nil {
		t.Error("Expected error for unknown identity")
	}
}
