package services

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"streakWardenAPI/internal/chat"
	"streakWardenAPI/internal/config"
	"streakWardenAPI/internal/database"
	"streakWardenAPI/internal/types/checkin"
	"streakWardenAPI/internal/types/leaderboard"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	if err := godotenv.Load("../.env"); err != nil {
		_ = godotenv.Load()
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL or DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	return pool
}

func cleanupUser(t *testing.T, pool *pgxpool.Pool, platformUserID string) {
	ctx := context.Background()
	if _, err := pool.Exec(ctx, "DELETE FROM checkins WHERE platform_user_id = $1", platformUserID); err != nil {
		log.Printf("Warning: failed to clean up checkins for %s: %v", platformUserID, err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM streaks WHERE platform_user_id = $1", platformUserID); err != nil {
		log.Printf("Warning: failed to clean up streak for %s: %v", platformUserID, err)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		ValidationQuorum:   1,
		MinReflectionChars: 150,
		MinHours:           20,
		MaxHours:           28,
		SimilarityBlock:    0.90,
		LeaderboardSize:    10,
		PendingTTL:         24 * time.Hour,
		SweepInterval:      30 * time.Minute,
	}
}

// fakeGateway records outbound calls and serves a canned approver set.
type fakeGateway struct {
	mu            sync.Mutex
	approvers     []chat.Approver
	logs          []string
	notifications []string
	approvedCards []checkin.MessageRef
	refreshes     int
	refreshRefs   []checkin.MessageRef
	motivations   []string
}

func (g *fakeGateway) PostPendingCard(ctx context.Context, card chat.PendingCard) (checkin.MessageRef, error) {
	return checkin.MessageRef{ChannelID: "chan-1", MessageID: "msg-1"}, nil
}

func (g *fakeGateway) UpdateCardApproved(ctx context.Context, ref checkin.MessageRef) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.approvedCards = append(g.approvedCards, ref)
	return nil
}

func (g *fakeGateway) NotifyUser(ctx context.Context, platformUserID, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.notifications = append(g.notifications, platformUserID+": "+text)
	return nil
}

func (g *fakeGateway) PostLog(ctx context.Context, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.logs = append(g.logs, text)
	return nil
}

func (g *fakeGateway) RefreshLeaderboard(ctx context.Context, ref checkin.MessageRef, rows []*leaderboard.Row) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refreshes++
	g.refreshRefs = append(g.refreshRefs, ref)
	return nil
}

func (g *fakeGateway) PostMotivation(ctx context.Context, channelID, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.motivations = append(g.motivations, channelID+": "+text)
	return nil
}

func (g *fakeGateway) EnumerateApprovers(ctx context.Context, ref checkin.MessageRef) ([]chat.Approver, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.approvers, nil
}
