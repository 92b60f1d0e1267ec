package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"streakWardenAPI/internal/config"
	"streakWardenAPI/internal/types/checkin"
	"streakWardenAPI/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CheckinService struct {
	db  *pgxpool.Pool
	cfg *config.Config
}

func NewCheckinService(db *pgxpool.Pool, cfg *config.Config) *CheckinService {
	return &CheckinService{db: db, cfg: cfg}
}

// Submit runs the submission gate: input validation, cooldown, similarity
// flagging, then inserts the pending record. No streak fields change here.
func (s *CheckinService) Submit(ctx context.Context, req *checkin.SubmitRequest, now time.Time) (*checkin.SubmitResponse, error) {
	day, err := parseDay(req.Day)
	if err != nil {
		checkinSubmissionsTotal.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	reflection := strings.TrimSpace(req.Reflection)
	if len([]rune(reflection)) < s.cfg.MinReflectionChars {
		checkinSubmissionsTotal.WithLabelValues("invalid_input").Inc()
		return nil, fmt.Errorf("%w: reflection must be at least %d characters", checkin.ErrInvalidInput, s.cfg.MinReflectionChars)
	}

	var lastCheckinAt *time.Time
	err = s.db.QueryRow(ctx,
		`SELECT last_checkin_at FROM streaks WHERE platform_user_id = $1`,
		req.PlatformUserID,
	).Scan(&lastCheckinAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read streak state: %w", err)
	}

	// No history counts as an infinite gap.
	if lastCheckinAt != nil {
		since := now.Sub(*lastCheckinAt)
		minGap := time.Duration(s.cfg.MinHours * float64(time.Hour))
		if since < minGap {
			checkinSubmissionsTotal.WithLabelValues("too_soon").Inc()
			return nil, &checkin.TooSoonError{Wait: minGap - since}
		}
		if since > time.Duration(s.cfg.MaxHours*float64(time.Hour)) {
			// Late submissions stay allowed; lateness is never punished here.
			log.Printf("CheckinService: late submission from %s (%.1fh since last approval)", req.PlatformUserID, since.Hours())
		}
	}

	similar, err := s.similarToLatest(ctx, req.PlatformUserID, reflection)
	if err != nil {
		return nil, err
	}

	var proofURL *string
	if p := strings.TrimSpace(req.ProofURL); p != "" {
		proofURL = &p
	}

	rec := &checkin.Record{
		PlatformUserID: req.PlatformUserID,
		DayReported:    day,
		Reflection:     reflection,
		ProofURL:       proofURL,
		Status:         checkin.StatusPending,
		SimilarityFlag: similar,
	}

	err = s.db.QueryRow(ctx, `
	INSERT INTO checkins (platform_user_id, created_at, day_reported, reflection, proof_url, status, similarity_flag)
	VALUES ($1, $2, $3, $4, $5, 'pending', $6)
	RETURNING id, created_at
	`, rec.PlatformUserID, now, rec.DayReported, rec.Reflection, rec.ProofURL, rec.SimilarityFlag,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkin: %w", err)
	}

	checkinSubmissionsTotal.WithLabelValues("pending").Inc()
	return &checkin.SubmitResponse{Checkin: rec, SimilarityFlag: similar}, nil
}

// similarToLatest compares against the user's most recent approved or pending
// reflection. The flag is advisory and never blocks acceptance.
func (s *CheckinService) similarToLatest(ctx context.Context, platformUserID, reflection string) (bool, error) {
	var prev string
	err := s.db.QueryRow(ctx, `
	SELECT reflection FROM checkins
	WHERE platform_user_id = $1 AND status IN ('approved', 'pending')
	ORDER BY id DESC LIMIT 1
	`, platformUserID).Scan(&prev)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read previous reflection: %w", err)
	}

	return utils.SimilarityRatio(prev, reflection) >= s.cfg.SimilarityBlock, nil
}

// AttachMessage binds the posted pending card to its record so later approval
// signals can be resolved back to it.
func (s *CheckinService) AttachMessage(ctx context.Context, checkinID int64, ref checkin.MessageRef) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE checkins SET message_channel = $1, message_id = $2 WHERE id = $3`,
		ref.ChannelID, ref.MessageID, checkinID,
	)
	if err != nil {
		return fmt.Errorf("failed to attach message ref: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return checkin.ErrNotFound
	}
	return nil
}

// History returns the user's most recent submissions, newest first.
func (s *CheckinService) History(ctx context.Context, platformUserID string, limit int) ([]*checkin.Record, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.Query(ctx, `
	SELECT id, platform_user_id, created_at, day_reported, reflection, proof_url, status, similarity_flag, reason,
	       COALESCE(message_channel, ''), COALESCE(message_id, '')
	FROM checkins
	WHERE platform_user_id = $1
	ORDER BY id DESC LIMIT $2
	`, platformUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var records []*checkin.Record
	for rows.Next() {
		rec := &checkin.Record{}
		err := rows.Scan(
			&rec.ID,
			&rec.PlatformUserID,
			&rec.CreatedAt,
			&rec.DayReported,
			&rec.Reflection,
			&rec.ProofURL,
			&rec.Status,
			&rec.SimilarityFlag,
			&rec.Reason,
			&rec.Message.ChannelID,
			&rec.Message.MessageID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkin: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Counts aggregates record totals by status plus the participant count.
func (s *CheckinService) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.Query(ctx, `SELECT status, COUNT(*) FROM checkins GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count checkins: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var users int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM streaks`).Scan(&users); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	counts["users"] = users

	return counts, nil
}

func parseDay(raw string) (int, error) {
	cleaned := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Day"))
	day, err := strconv.Atoi(cleaned)
	if err != nil || day < 0 || day > 10000 {
		return 0, fmt.Errorf("%w: day must be an integer between 0 and 10000", checkin.ErrInvalidInput)
	}
	return day, nil
}
