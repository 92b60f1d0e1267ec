package checkin

// SubmitRequest is the payload the bot gateway forwards when a member fills
// the check-in form. Day arrives as a raw string exactly as typed.
type SubmitRequest struct {
	PlatformUserID string `json:"platform_user_id"`
	Day            string `json:"day"`
	Reflection     string `json:"reflection"`
	ProofURL       string `json:"proof_url,omitempty"`
}

type SubmitResponse struct {
	Checkin        *Record `json:"checkin"`
	SimilarityFlag bool    `json:"similarity_flag"`
}

// ApprovalSignalRequest is one reaction-add event from the platform. The
// signaling user is informational only; the evaluator re-enumerates the full
// approver set from the gateway.
type ApprovalSignalRequest struct {
	ChannelID      string `json:"channel_id"`
	MessageID      string `json:"message_id"`
	PlatformUserID string `json:"platform_user_id"`
}
