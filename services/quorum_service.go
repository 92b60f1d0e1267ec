package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"streakWardenAPI/internal/chat"
	"streakWardenAPI/internal/config"
	"streakWardenAPI/internal/types/checkin"
	"streakWardenAPI/internal/types/streak"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuorumService turns raw approval signals into at-most-one terminal
// transition per pending record.
type QuorumService struct {
	db      *pgxpool.Pool
	cfg     *config.Config
	gateway chat.Gateway
	streaks *StreakService
}

func NewQuorumService(db *pgxpool.Pool, cfg *config.Config, gateway chat.Gateway, streaks *StreakService) *QuorumService {
	return &QuorumService{db: db, cfg: cfg, gateway: gateway, streaks: streaks}
}

// Evaluation reports what one signal evaluation did.
type Evaluation struct {
	Status        checkin.Status `json:"status"`
	Weight        float64        `json:"weight"`
	CurrentStreak int            `json:"current_streak,omitempty"`
	LongestStreak int            `json:"longest_streak,omitempty"`
}

// OnApprovalSignal handles one reaction-add event. Signals for unknown
// messages or already-resolved records are silent no-ops; only the live
// approver set from the gateway counts, never the signaling user alone.
func (s *QuorumService) OnApprovalSignal(ctx context.Context, ref checkin.MessageRef, now time.Time) (*Evaluation, error) {
	quorumEvaluationsTotal.Inc()

	var checkinID int64
	var platformUserID string
	var status checkin.Status
	err := s.db.QueryRow(ctx, `
	SELECT id, platform_user_id, status FROM checkins
	WHERE message_channel = $1 AND message_id = $2
	`, ref.ChannelID, ref.MessageID).Scan(&checkinID, &platformUserID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Evaluation{Status: ""}, nil
		}
		return nil, fmt.Errorf("failed to resolve checkin by message: %w", err)
	}
	if status != checkin.StatusPending {
		return &Evaluation{Status: status}, nil
	}

	approvers, err := s.gateway.EnumerateApprovers(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate approvers: %w", err)
	}

	weight := WeightedSupport(approvers)
	if weight < s.cfg.ValidationQuorum {
		return &Evaluation{Status: checkin.StatusPending, Weight: weight}, nil
	}

	eval, err := s.resolve(ctx, checkinID, platformUserID, now)
	if err != nil {
		if errors.Is(err, checkin.ErrConflict) {
			// A concurrent evaluation or the sweeper won the transition.
			return eval, nil
		}
		return nil, err
	}
	eval.Weight = weight

	switch eval.Status {
	case checkin.StatusApproved:
		checkinResolutionsTotal.WithLabelValues("approved").Inc()
		s.announceApproval(ref, platformUserID, checkinID, eval)
	case checkin.StatusRejected:
		checkinResolutionsTotal.WithLabelValues("rejected").Inc()
		if err := s.gateway.PostLog(ctx, fmt.Sprintf("Rejected (cooldown) for <@%s> on #%d", platformUserID, checkinID)); err != nil {
			log.Printf("QuorumService: failed to post rejection log: %v", err)
		}
	}

	return eval, nil
}

// resolve applies the terminal transition inside one transaction. Row locks on
// the record and the streak row serialize concurrent evaluations; the
// status = 'pending' guard on each update makes whichever writer wins final.
func (s *QuorumService) resolve(ctx context.Context, checkinID int64, platformUserID string, now time.Time) (*Evaluation, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status checkin.Status
	err = tx.QueryRow(ctx, `SELECT status FROM checkins WHERE id = $1 FOR UPDATE`, checkinID).Scan(&status)
	if err != nil {
		return nil, fmt.Errorf("failed to lock checkin: %w", err)
	}
	if status != checkin.StatusPending {
		// Another evaluation or the sweeper already won.
		return &Evaluation{Status: status}, nil
	}

	// FOR UPDATE on a row that does not exist takes no lock, so a first-time
	// user's concurrent approvals would not serialize. Materialize the row
	// first; the unique index makes concurrent writers queue here instead.
	_, err = tx.Exec(ctx, `
	INSERT INTO streaks (id, platform_user_id)
	VALUES ($1, $2)
	ON CONFLICT (platform_user_id) DO NOTHING
	`, uuid.New(), platformUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize streak row: %w", err)
	}

	var current, longest int
	var lastCheckinAt *time.Time
	err = tx.QueryRow(ctx, `
	SELECT current_streak, longest_streak, last_checkin_at FROM streaks
	WHERE platform_user_id = $1 FOR UPDATE
	`, platformUserID).Scan(&current, &longest, &lastCheckinAt)
	if err != nil {
		return nil, fmt.Errorf("failed to lock streak row: %w", err)
	}

	// Re-check the cooldown against the state at approval time. Quorum can be
	// reached long after submission, so the gate's check is not enough.
	if lastCheckinAt != nil {
		minGap := time.Duration(s.cfg.MinHours * float64(time.Hour))
		if now.Sub(*lastCheckinAt) < minGap {
			_, err = tx.Exec(ctx,
				`UPDATE checkins SET status = 'rejected', reason = 'cooldown' WHERE id = $1 AND status = 'pending'`,
				checkinID,
			)
			if err != nil {
				return nil, fmt.Errorf("failed to reject checkin: %w", err)
			}
			if err := tx.Commit(ctx); err != nil {
				return nil, fmt.Errorf("failed to commit rejection: %w", err)
			}
			return &Evaluation{Status: checkin.StatusRejected}, nil
		}
	}

	newCurrent, newLongest := streak.Advance(current, longest)

	_, err = tx.Exec(ctx, `
	INSERT INTO streaks (id, platform_user_id, current_streak, longest_streak, last_checkin_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	ON CONFLICT (platform_user_id) DO UPDATE SET
		current_streak = $3,
		longest_streak = GREATEST(streaks.longest_streak, $4),
		last_checkin_at = $5,
		updated_at = NOW()
	`, uuid.New(), platformUserID, newCurrent, newLongest, now)
	if err != nil {
		return nil, fmt.Errorf("failed to update streak: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE checkins SET status = 'approved' WHERE id = $1 AND status = 'pending'`,
		checkinID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to approve checkin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &Evaluation{Status: checkin.StatusApproved}, checkin.ErrConflict
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}

	return &Evaluation{
		Status:        checkin.StatusApproved,
		CurrentStreak: newCurrent,
		LongestStreak: newLongest,
	}, nil
}

// announceApproval mirrors the decision out to the platform. Every call is
// best-effort; the store already holds the truth.
func (s *QuorumService) announceApproval(ref checkin.MessageRef, platformUserID string, checkinID int64, eval *Evaluation) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.gateway.UpdateCardApproved(ctx, ref); err != nil {
		log.Printf("QuorumService: failed to update card for #%d: %v", checkinID, err)
	}
	if err := s.gateway.NotifyUser(ctx, platformUserID, fmt.Sprintf("Your check-in was approved. New streak: %d days.", eval.CurrentStreak)); err != nil {
		log.Printf("QuorumService: failed to notify %s: %v", platformUserID, err)
	}
	if err := s.gateway.PostLog(ctx, fmt.Sprintf("Approved by quorum: <@%s> -> %d days (check-in #%d)", platformUserID, eval.CurrentStreak, checkinID)); err != nil {
		log.Printf("QuorumService: failed to post approval log: %v", err)
	}
	if err := s.streaks.RefreshLeaderboard(ctx); err != nil {
		log.Printf("QuorumService: failed to refresh leaderboard: %v", err)
	}
}

// WeightedSupport sums validator weights over a freshly enumerated approver
// set: 1.0 per validator, 1.5 for seniors, deduplicated by identity.
func WeightedSupport(approvers []chat.Approver) float64 {
	seen := make(map[string]bool, len(approvers))
	var sum float64
	for _, a := range approvers {
		if !a.Validator && !a.Senior {
			continue
		}
		if seen[a.PlatformUserID] {
			continue
		}
		seen[a.PlatformUserID] = true
		if a.Senior {
			sum += 1.5
		} else {
			sum += 1.0
		}
	}
	return sum
}
