package services

import (
	"context"
	"testing"
	"time"

	"streakWardenAPI/internal/chat"
	"streakWardenAPI/internal/types/checkin"

	"github.com/google/uuid"
)

func TestSweepExpiresStalePending(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	uid := "test-" + uuid.New().String()
	defer cleanupUser(t, pool, uid)

	cfg := testConfig()
	gateway := &fakeGateway{}
	checkins := NewCheckinService(pool, cfg)
	sweeper := NewSweeperService(pool, cfg, gateway)

	ctx := context.Background()
	stale, err := checkins.Submit(ctx, &checkin.SubmitRequest{
		PlatformUserID: uid,
		Day:            "1",
		Reflection:     validReflection,
	}, time.Now().Add(-25*time.Hour))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	swept, err := sweeper.SweepOnce(ctx, time.Now())
	if err != nil {
		t.Fatalf("SweepOnce failed: %v", err)
	}
	if swept < 1 {
		t.Fatalf("expected at least one expiry, got %d", swept)
	}

	var status string
	if err := pool.QueryRow(ctx, "SELECT status FROM checkins WHERE id = $1", stale.Checkin.ID).Scan(&status); err != nil {
		t.Fatalf("status query failed: %v", err)
	}
	if status != "expired" {
		t.Errorf("expected expired, got %s", status)
	}

	// No streak row appears from an expiry.
	var n int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM streaks WHERE platform_user_id = $1", uid).Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Error("expiry must not touch streak state")
	}
}

func TestSweepSkipsFreshAndResolved(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	uid := "test-" + uuid.New().String()
	freshUID := "test-" + uuid.New().String()
	defer cleanupUser(t, pool, uid)
	defer cleanupUser(t, pool, freshUID)

	cfg := testConfig()
	gateway := &fakeGateway{approvers: []chat.Approver{{PlatformUserID: "v1", Validator: true}}}
	checkins := NewCheckinService(pool, cfg)
	streaks := NewStreakService(pool, cfg, gateway, NewSettingsService(pool))
	quorum := NewQuorumService(pool, cfg, gateway, streaks)
	sweeper := NewSweeperService(pool, cfg, gateway)

	ctx := context.Background()

	// Stale but already approved: the status filter must skip it.
	ref := checkin.MessageRef{ChannelID: "chan-" + uid, MessageID: "msg-" + uid}
	approved, err := checkins.Submit(ctx, &checkin.SubmitRequest{
		PlatformUserID: uid,
		Day:            "1",
		Reflection:     validReflection,
	}, time.Now().Add(-25*time.Hour))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := checkins.AttachMessage(ctx, approved.Checkin.ID, ref); err != nil {
		t.Fatalf("AttachMessage failed: %v", err)
	}
	if eval, err := quorum.OnApprovalSignal(ctx, ref, time.Now()); err != nil || eval.Status != checkin.StatusApproved {
		t.Fatalf("approval setup failed: %v (%v)", eval, err)
	}

	// Fresh pending record from another user: inside the TTL, must survive.
	fresh, err := checkins.Submit(ctx, &checkin.SubmitRequest{
		PlatformUserID: freshUID,
		Day:            "1",
		Reflection:     validReflection,
	}, time.Now())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if _, err := sweeper.SweepOnce(ctx, time.Now()); err != nil {
		t.Fatalf("SweepOnce failed: %v", err)
	}

	var status string
	if err := pool.QueryRow(ctx, "SELECT status FROM checkins WHERE id = $1", approved.Checkin.ID).Scan(&status); err != nil {
		t.Fatalf("status query failed: %v", err)
	}
	if status != "approved" {
		t.Errorf("sweep must not overwrite a resolved record, got %s", status)
	}

	if err := pool.QueryRow(ctx, "SELECT status FROM checkins WHERE id = $1", fresh.Checkin.ID).Scan(&status); err != nil {
		t.Fatalf("status query failed: %v", err)
	}
	if status != "pending" {
		t.Errorf("sweep must leave fresh records pending, got %s", status)
	}
}
