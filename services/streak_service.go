package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"streakWardenAPI/internal/chat"
	"streakWardenAPI/internal/config"
	"streakWardenAPI/internal/types/checkin"
	"streakWardenAPI/internal/types/leaderboard"
	"streakWardenAPI/internal/types/streak"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StreakService struct {
	db       *pgxpool.Pool
	cfg      *config.Config
	gateway  chat.Gateway
	settings *SettingsService
}

func NewStreakService(db *pgxpool.Pool, cfg *config.Config, gateway chat.Gateway, settings *SettingsService) *StreakService {
	return &StreakService{db: db, cfg: cfg, gateway: gateway, settings: settings}
}

func (s *StreakService) Get(ctx context.Context, platformUserID string) (*streak.UserStreak, error) {
	us := &streak.UserStreak{}
	err := s.db.QueryRow(ctx, `
	SELECT id, platform_user_id, current_streak, longest_streak, last_checkin_at, frozen, created_at, updated_at
	FROM streaks WHERE platform_user_id = $1
	`, platformUserID).Scan(
		&us.ID,
		&us.PlatformUserID,
		&us.CurrentStreak,
		&us.LongestStreak,
		&us.LastCheckinAt,
		&us.Frozen,
		&us.CreatedAt,
		&us.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, checkin.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}

	return us, nil
}

// Leaderboard projects the top current streaks, frozen users excluded.
func (s *StreakService) Leaderboard(ctx context.Context, limit int) (*leaderboard.Leaderboard, error) {
	if limit <= 0 {
		limit = s.cfg.LeaderboardSize
	}

	rows, err := s.db.Query(ctx, `
	SELECT platform_user_id, current_streak, longest_streak
	FROM streaks
	WHERE frozen = FALSE
	ORDER BY current_streak DESC, longest_streak DESC
	LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	lb := &leaderboard.Leaderboard{Rows: []*leaderboard.Row{}}
	rank := 0
	for rows.Next() {
		rank++
		row := &leaderboard.Row{Rank: rank}
		if err := rows.Scan(&row.PlatformUserID, &row.CurrentStreak, &row.LongestStreak); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		lb.Rows = append(lb.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM streaks WHERE frozen = FALSE`).Scan(&lb.TotalUsers); err != nil {
		return nil, fmt.Errorf("failed to count leaderboard users: %w", err)
	}

	return lb, nil
}

// RefreshLeaderboard republishes the projection through the gateway, aimed at
// the pinned message the admin bound, if any.
func (s *StreakService) RefreshLeaderboard(ctx context.Context) error {
	lb, err := s.Leaderboard(ctx, s.cfg.LeaderboardSize)
	if err != nil {
		return err
	}

	var ref checkin.MessageRef
	if ch, ok, err := s.settings.Get(ctx, SettingLeaderboardChannel); err != nil {
		return err
	} else if ok {
		ref.ChannelID = ch
	}
	if msg, ok, err := s.settings.Get(ctx, SettingLeaderboardMessage); err != nil {
		return err
	} else if ok {
		ref.MessageID = msg
	}

	return s.gateway.RefreshLeaderboard(ctx, ref, lb.Rows)
}

// AdminSet overwrites the current streak; longest only ever grows.
func (s *StreakService) AdminSet(ctx context.Context, platformUserID string, value int) error {
	_, err := s.db.Exec(ctx, `
	INSERT INTO streaks (id, platform_user_id, current_streak, longest_streak, last_checkin_at, updated_at)
	VALUES ($1, $2, $3, $3, $4, NOW())
	ON CONFLICT (platform_user_id) DO UPDATE SET
		current_streak = $3,
		longest_streak = GREATEST(streaks.longest_streak, $3),
		last_checkin_at = $4,
		updated_at = NOW()
	`, uuid.New(), platformUserID, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set streak: %w", err)
	}
	return nil
}

// AdminAdd shifts the current streak by delta in a single statement so racing
// approvals cannot lose the update.
func (s *StreakService) AdminAdd(ctx context.Context, platformUserID string, delta int) (int, error) {
	var current int
	err := s.db.QueryRow(ctx, `
	INSERT INTO streaks (id, platform_user_id, current_streak, longest_streak, last_checkin_at, updated_at)
	VALUES ($1, $2, $3, GREATEST($3, 0), $4, NOW())
	ON CONFLICT (platform_user_id) DO UPDATE SET
		current_streak = streaks.current_streak + $3,
		longest_streak = GREATEST(streaks.longest_streak, streaks.current_streak + $3),
		last_checkin_at = $4,
		updated_at = NOW()
	RETURNING current_streak
	`, uuid.New(), platformUserID, delta, time.Now()).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("failed to add to streak: %w", err)
	}
	return current, nil
}

// AdminReset zeroes the current streak; longest and history stay.
func (s *StreakService) AdminReset(ctx context.Context, platformUserID string) error {
	_, err := s.db.Exec(ctx, `
	INSERT INTO streaks (id, platform_user_id, current_streak, longest_streak, updated_at)
	VALUES ($1, $2, 0, 0, NOW())
	ON CONFLICT (platform_user_id) DO UPDATE SET
		current_streak = 0,
		updated_at = NOW()
	`, uuid.New(), platformUserID)
	if err != nil {
		return fmt.Errorf("failed to reset streak: %w", err)
	}
	return nil
}

// AdminFreeze toggles leaderboard exclusion without touching the counters.
func (s *StreakService) AdminFreeze(ctx context.Context, platformUserID string, frozen bool) error {
	_, err := s.db.Exec(ctx, `
	INSERT INTO streaks (id, platform_user_id, frozen, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (platform_user_id) DO UPDATE SET
		frozen = $3,
		updated_at = NOW()
	`, uuid.New(), platformUserID, frozen)
	if err != nil {
		return fmt.Errorf("failed to freeze streak: %w", err)
	}
	return nil
}
