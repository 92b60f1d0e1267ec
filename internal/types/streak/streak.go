package streak

import (
	"time"

	"github.com/google/uuid"
)

// UserStreak is the per-participant counter state. Rows are created lazily on
// the first approval (or an admin write) and are never deleted, only reset.
type UserStreak struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	PlatformUserID string     `json:"platform_user_id" db:"platform_user_id"`
	CurrentStreak  int        `json:"current_streak" db:"current_streak"`
	LongestStreak  int        `json:"longest_streak" db:"longest_streak"`
	LastCheckinAt  *time.Time `json:"last_checkin_at" db:"last_checkin_at"`
	Frozen         bool       `json:"frozen" db:"frozen"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Advance computes the counters after an approved check-in. Approval always
// continues the streak; being late never resets it, the cooldown rejection
// upstream is the only guard.
func Advance(current, longest int) (int, int) {
	current++
	if current > longest {
		longest = current
	}
	return current, longest
}
