package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"streakWardenAPI/internal/chat"
	"streakWardenAPI/internal/config"

	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SweeperService expires pending check-ins that never reached quorum. It races
// benignly with the quorum evaluator: the status = 'pending' filter means
// whichever transition lands first is final.
type SweeperService struct {
	db      *pgxpool.Pool
	cfg     *config.Config
	gateway chat.Gateway
	sched   gocron.Scheduler
}

func NewSweeperService(db *pgxpool.Pool, cfg *config.Config, gateway chat.Gateway) *SweeperService {
	return &SweeperService{db: db, cfg: cfg, gateway: gateway}
}

func (s *SweeperService) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create sweep scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.cfg.SweepInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if _, err := s.SweepOnce(ctx, time.Now()); err != nil {
				// Store errors are retryable; the next tick tries again.
				log.Printf("SweeperService: sweep failed: %v", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule sweep job: %w", err)
	}

	s.sched = sched
	sched.Start()
	log.Printf("SweeperService: sweeping every %s, expiring after %s", s.cfg.SweepInterval, s.cfg.PendingTTL)
	return nil
}

func (s *SweeperService) Stop() {
	if s.sched != nil {
		_ = s.sched.Shutdown()
	}
}

// SweepOnce expires everything pending past the TTL in one conditional update
// and returns how many records it flipped. No streak state changes.
func (s *SweeperService) SweepOnce(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.cfg.PendingTTL)

	rows, err := s.db.Query(ctx, `
	UPDATE checkins SET status = 'expired'
	WHERE status = 'pending' AND created_at < $1
	RETURNING id, platform_user_id
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire checkins: %w", err)
	}
	defer rows.Close()

	type expired struct {
		id             int64
		platformUserID string
	}
	var swept []expired
	for rows.Next() {
		var e expired
		if err := rows.Scan(&e.id, &e.platformUserID); err != nil {
			return 0, fmt.Errorf("failed to scan expired checkin: %w", err)
		}
		swept = append(swept, e)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, e := range swept {
		checkinResolutionsTotal.WithLabelValues("expired").Inc()
		if err := s.gateway.PostLog(ctx, fmt.Sprintf("Expired check-in #%d for <@%s> (no quorum)", e.id, e.platformUserID)); err != nil {
			log.Printf("SweeperService: failed to post expiry log for #%d: %v", e.id, err)
		}
	}

	return len(swept), nil
}
