package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestLeaderboardExcludesFrozen(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	active := "test-" + uuid.New().String()
	frozen := "test-" + uuid.New().String()
	defer cleanupUser(t, pool, active)
	defer cleanupUser(t, pool, frozen)

	streaks := NewStreakService(pool, testConfig(), &fakeGateway{}, NewSettingsService(pool))

	ctx := context.Background()
	if err := streaks.AdminSet(ctx, active, 9999); err != nil {
		t.Fatalf("AdminSet failed: %v", err)
	}
	if err := streaks.AdminSet(ctx, frozen, 9998); err != nil {
		t.Fatalf("AdminSet failed: %v", err)
	}
	if err := streaks.AdminFreeze(ctx, frozen, true); err != nil {
		t.Fatalf("AdminFreeze failed: %v", err)
	}

	lb, err := streaks.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}

	sawActive := false
	for _, row := range lb.Rows {
		if row.PlatformUserID == frozen {
			t.Errorf("frozen user must not appear on the leaderboard")
		}
		if row.PlatformUserID == active {
			sawActive = true
		}
	}
	if !sawActive {
		t.Error("active user missing from the leaderboard")
	}
}

func TestRefreshLeaderboardCarriesBoundMessage(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	settings := NewSettingsService(pool)
	defer pool.Exec(ctx, "DELETE FROM settings WHERE key IN ($1, $2)",
		SettingLeaderboardChannel, SettingLeaderboardMessage)

	if err := settings.Set(ctx, SettingLeaderboardChannel, "chan-lb"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := settings.Set(ctx, SettingLeaderboardMessage, "msg-lb"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	gateway := &fakeGateway{}
	streaks := NewStreakService(pool, testConfig(), gateway, settings)

	if err := streaks.RefreshLeaderboard(ctx); err != nil {
		t.Fatalf("RefreshLeaderboard failed: %v", err)
	}

	if len(gateway.refreshRefs) != 1 {
		t.Fatalf("expected one refresh, got %d", len(gateway.refreshRefs))
	}
	ref := gateway.refreshRefs[0]
	if ref.ChannelID != "chan-lb" || ref.MessageID != "msg-lb" {
		t.Errorf("bound message ref not carried, got %+v", ref)
	}
}
