package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"streakWardenAPI/internal/chat"
	"streakWardenAPI/middleware"
	"streakWardenAPI/services"

	"github.com/gorilla/mux"
)

type AdminHandler struct {
	streakService     *services.StreakService
	checkinService    *services.CheckinService
	settingsService   *services.SettingsService
	motivationService *services.MotivationService
	gateway           chat.Gateway
}

func NewAdminHandler(streakService *services.StreakService, checkinService *services.CheckinService, settingsService *services.SettingsService, motivationService *services.MotivationService, gateway chat.Gateway) *AdminHandler {
	return &AdminHandler{
		streakService:     streakService,
		checkinService:    checkinService,
		settingsService:   settingsService,
		motivationService: motivationService,
		gateway:           gateway,
	}
}

type adminStreakRequest struct {
	PlatformUserID string `json:"platform_user_id"`
	Value          int    `json:"value"`
	Delta          int    `json:"delta"`
	Frozen         bool   `json:"frozen"`
}

func (h *AdminHandler) decodeStreakRequest(w http.ResponseWriter, r *http.Request) (*adminStreakRequest, bool) {
	var req adminStreakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	if req.PlatformUserID == "" {
		respondWithError(w, http.StatusBadRequest, "platform_user_id is required")
		return nil, false
	}
	return &req, true
}

// afterMutation mirrors an admin write to the audit log channel and refreshes
// the leaderboard. Both best-effort.
func (h *AdminHandler) afterMutation(ctx context.Context, r *http.Request, text string) {
	actor := "unknown"
	if caller, ok := middleware.GetCaller(r.Context()); ok {
		actor = caller.Subject
	}
	if err := h.gateway.PostLog(ctx, fmt.Sprintf("%s by %s", text, actor)); err != nil {
		log.Printf("Admin Handler: failed to post log: %v", err)
	}
	if err := h.streakService.RefreshLeaderboard(ctx); err != nil {
		log.Printf("Admin Handler: failed to refresh leaderboard: %v", err)
	}
}

func (h *AdminHandler) SetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	req, ok := h.decodeStreakRequest(w, r)
	if !ok {
		return
	}

	if err := h.streakService.AdminSet(ctx, req.PlatformUserID, req.Value); err != nil {
		log.Printf("SetStreak Handler: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to set streak")
		return
	}

	h.afterMutation(ctx, r, fmt.Sprintf("Admin set <@%s> to %d", req.PlatformUserID, req.Value))
	respondWithJSON(w, http.StatusOK, map[string]any{"platform_user_id": req.PlatformUserID, "current_streak": req.Value})
}

func (h *AdminHandler) AddStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	req, ok := h.decodeStreakRequest(w, r)
	if !ok {
		return
	}

	current, err := h.streakService.AdminAdd(ctx, req.PlatformUserID, req.Delta)
	if err != nil {
		log.Printf("AddStreak Handler: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to add to streak")
		return
	}

	h.afterMutation(ctx, r, fmt.Sprintf("Admin add %d for <@%s>", req.Delta, req.PlatformUserID))
	respondWithJSON(w, http.StatusOK, map[string]any{"platform_user_id": req.PlatformUserID, "current_streak": current})
}

func (h *AdminHandler) ResetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	req, ok := h.decodeStreakRequest(w, r)
	if !ok {
		return
	}

	if err := h.streakService.AdminReset(ctx, req.PlatformUserID); err != nil {
		log.Printf("ResetStreak Handler: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to reset streak")
		return
	}

	h.afterMutation(ctx, r, fmt.Sprintf("Admin reset <@%s>", req.PlatformUserID))
	respondWithJSON(w, http.StatusOK, map[string]any{"platform_user_id": req.PlatformUserID, "current_streak": 0})
}

func (h *AdminHandler) FreezeStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	req, ok := h.decodeStreakRequest(w, r)
	if !ok {
		return
	}

	if err := h.streakService.AdminFreeze(ctx, req.PlatformUserID, req.Frozen); err != nil {
		log.Printf("FreezeStreak Handler: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to freeze streak")
		return
	}

	verb := "unfroze"
	if req.Frozen {
		verb = "froze"
	}
	h.afterMutation(ctx, r, fmt.Sprintf("Admin %s <@%s>", verb, req.PlatformUserID))
	respondWithJSON(w, http.StatusOK, map[string]any{"platform_user_id": req.PlatformUserID, "frozen": req.Frozen})
}

func (h *AdminHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	platformUserID := mux.Vars(r)["platformUserID"]
	records, err := h.checkinService.History(ctx, platformUserID, queryLimit(r, 5))
	if err != nil {
		log.Printf("GetHistory Handler: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get history")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"history": records})
}

func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	counts, err := h.checkinService.Counts(ctx)
	if err != nil {
		log.Printf("GetStats Handler: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get stats")
		return
	}

	respondWithJSON(w, http.StatusOK, counts)
}

type motivationBindRequest struct {
	ChannelID string `json:"channel_id"`
	Hour      int    `json:"hour"`
}

func (h *AdminHandler) BindMotivation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req motivationBindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChannelID == "" {
		respondWithError(w, http.StatusBadRequest, "channel_id is required")
		return
	}

	if err := h.motivationService.Bind(ctx, req.ChannelID, req.Hour); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"channel_id": req.ChannelID, "hour": req.Hour})
}

func (h *AdminHandler) StartMotivation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.motivationService.Start(ctx); err != nil {
		log.Printf("StartMotivation Handler: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to start motivation timer")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"running": true})
}

func (h *AdminHandler) StopMotivation(w http.ResponseWriter, r *http.Request) {
	h.motivationService.Stop()
	respondWithJSON(w, http.StatusOK, map[string]any{"running": false})
}

func (h *AdminHandler) TriggerMotivation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.motivationService.Trigger(ctx); err != nil {
		log.Printf("TriggerMotivation Handler: %v", err)
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"posted": true})
}

type leaderboardBindRequest struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

// BindLeaderboard stores where the projection message lives so the gateway can
// keep editing the same pinned message.
func (h *AdminHandler) BindLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req leaderboardBindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChannelID == "" || req.MessageID == "" {
		respondWithError(w, http.StatusBadRequest, "channel_id and message_id are required")
		return
	}

	if err := h.settingsService.Set(ctx, services.SettingLeaderboardChannel, req.ChannelID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to store leaderboard channel")
		return
	}
	if err := h.settingsService.Set(ctx, services.SettingLeaderboardMessage, req.MessageID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to store leaderboard message")
		return
	}

	respondWithJSON(w, http.StatusOK, req)
}

func (h *AdminHandler) RefreshLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.streakService.RefreshLeaderboard(ctx); err != nil {
		log.Printf("RefreshLeaderboard Handler: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to refresh leaderboard")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"refreshed": true})
}
