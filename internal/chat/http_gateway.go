package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"streakWardenAPI/internal/types/checkin"
	"streakWardenAPI/internal/types/leaderboard"
)

// HTTPGateway talks to the bot gateway process that holds the actual platform
// session. All calls are JSON over HTTP with a shared service token.
type HTTPGateway struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPGateway(baseURL, token string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Printf("Gateway %s returned %d: %s", path, resp.StatusCode, string(data))
		return fmt.Errorf("gateway %s failed: %d", path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("gateway %s: bad response: %w", path, err)
		}
	}
	return nil
}

func (g *HTTPGateway) PostPendingCard(ctx context.Context, card PendingCard) (checkin.MessageRef, error) {
	var ref checkin.MessageRef
	if err := g.post(ctx, "/cards/pending", card, &ref); err != nil {
		return checkin.MessageRef{}, err
	}
	return ref, nil
}

func (g *HTTPGateway) UpdateCardApproved(ctx context.Context, ref checkin.MessageRef) error {
	return g.post(ctx, "/cards/approve", ref, nil)
}

func (g *HTTPGateway) NotifyUser(ctx context.Context, platformUserID, text string) error {
	return g.post(ctx, "/notify", map[string]string{
		"platform_user_id": platformUserID,
		"text":             text,
	}, nil)
}

func (g *HTTPGateway) PostLog(ctx context.Context, text string) error {
	return g.post(ctx, "/log", map[string]string{"text": text}, nil)
}

func (g *HTTPGateway) RefreshLeaderboard(ctx context.Context, ref checkin.MessageRef, rows []*leaderboard.Row) error {
	return g.post(ctx, "/leaderboard", map[string]any{
		"channel_id": ref.ChannelID,
		"message_id": ref.MessageID,
		"rows":       rows,
	}, nil)
}

func (g *HTTPGateway) PostMotivation(ctx context.Context, channelID, text string) error {
	return g.post(ctx, "/motivation", map[string]string{
		"channel_id": channelID,
		"text":       text,
	}, nil)
}

func (g *HTTPGateway) EnumerateApprovers(ctx context.Context, ref checkin.MessageRef) ([]Approver, error) {
	var out struct {
		Approvers []Approver `json:"approvers"`
	}
	if err := g.post(ctx, "/approvers", ref, &out); err != nil {
		return nil, err
	}
	return out.Approvers, nil
}
