package chat

import (
	"context"

	"streakWardenAPI/internal/types/checkin"
	"streakWardenAPI/internal/types/leaderboard"
)

// Approver is one member currently signaling approval on a pending card, as
// reported by the platform right now. Non-validators carry no weight.
type Approver struct {
	PlatformUserID string `json:"platform_user_id"`
	Validator      bool   `json:"validator"`
	Senior         bool   `json:"senior"`
}

// PendingCard is what the bot renders as the public validation message.
type PendingCard struct {
	CheckinID      int64   `json:"checkin_id"`
	PlatformUserID string  `json:"platform_user_id"`
	Day            int     `json:"day"`
	Reflection     string  `json:"reflection"`
	ProofURL       *string `json:"proof_url,omitempty"`
	SimilarityFlag bool    `json:"similarity_flag"`
}

// Gateway is the chat platform seen from the core. Everything behind it is
// best-effort rendering; the store stays the single source of truth.
type Gateway interface {
	PostPendingCard(ctx context.Context, card PendingCard) (checkin.MessageRef, error)
	UpdateCardApproved(ctx context.Context, ref checkin.MessageRef) error
	NotifyUser(ctx context.Context, platformUserID, text string) error
	PostLog(ctx context.Context, text string) error
	// RefreshLeaderboard re-renders the pinned projection message named by ref.
	// A zero ref means no message is bound yet; the bot posts a fresh one.
	RefreshLeaderboard(ctx context.Context, ref checkin.MessageRef, rows []*leaderboard.Row) error
	PostMotivation(ctx context.Context, channelID, text string) error

	// EnumerateApprovers re-reads the live approval set for a card. The quorum
	// evaluator calls this on every signal instead of keeping a counter,
	// because validators add and remove reactions freely.
	EnumerateApprovers(ctx context.Context, ref checkin.MessageRef) ([]Approver, error)
}
