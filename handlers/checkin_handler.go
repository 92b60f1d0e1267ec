package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"streakWardenAPI/internal/chat"
	"streakWardenAPI/internal/types/checkin"
	"streakWardenAPI/services"

	"github.com/gorilla/mux"
)

type CheckinHandler struct {
	checkinService *services.CheckinService
	quorumService  *services.QuorumService
	streakService  *services.StreakService
	gateway        chat.Gateway
}

func NewCheckinHandler(checkinService *services.CheckinService, quorumService *services.QuorumService, streakService *services.StreakService, gateway chat.Gateway) *CheckinHandler {
	return &CheckinHandler{
		checkinService: checkinService,
		quorumService:  quorumService,
		streakService:  streakService,
		gateway:        gateway,
	}
}

// Submit handles one check-in form submission forwarded by the bot.
func (h *CheckinHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req checkin.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PlatformUserID == "" {
		respondWithError(w, http.StatusBadRequest, "platform_user_id is required")
		return
	}

	resp, err := h.checkinService.Submit(ctx, &req, time.Now())
	if err != nil {
		var tooSoon *checkin.TooSoonError
		switch {
		case errors.Is(err, checkin.ErrInvalidInput):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &tooSoon):
			respondWithJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":      "too soon",
				"wait_hours": tooSoon.Wait.Hours(),
			})
		default:
			log.Printf("Submit Handler: %v", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to submit check-in")
		}
		return
	}

	h.publishPendingCard(ctx, resp)

	respondWithJSON(w, http.StatusCreated, resp)
}

// publishPendingCard posts the validation card and binds it back to the
// record. The record is already durable; a failed post just means the card is
// missing and the record expires unvalidated.
func (h *CheckinHandler) publishPendingCard(ctx context.Context, resp *checkin.SubmitResponse) {
	rec := resp.Checkin
	ref, err := h.gateway.PostPendingCard(ctx, chat.PendingCard{
		CheckinID:      rec.ID,
		PlatformUserID: rec.PlatformUserID,
		Day:            rec.DayReported,
		Reflection:     rec.Reflection,
		ProofURL:       rec.ProofURL,
		SimilarityFlag: rec.SimilarityFlag,
	})
	if err != nil {
		log.Printf("Submit Handler: failed to post pending card for #%d: %v", rec.ID, err)
		return
	}

	if err := h.checkinService.AttachMessage(ctx, rec.ID, ref); err != nil {
		log.Printf("Submit Handler: failed to attach message for #%d: %v", rec.ID, err)
		return
	}
	rec.Message = ref

	flag := ""
	if rec.SimilarityFlag {
		flag = " (similar to last entry)"
	}
	if err := h.gateway.PostLog(ctx, fmt.Sprintf("New check-in pending: <@%s> Day %d%s (id %d)", rec.PlatformUserID, rec.DayReported, flag, rec.ID)); err != nil {
		log.Printf("Submit Handler: failed to post log for #%d: %v", rec.ID, err)
	}
}

// ApprovalSignal handles one reaction-add event from the platform.
func (h *CheckinHandler) ApprovalSignal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var req checkin.ApprovalSignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChannelID == "" || req.MessageID == "" {
		respondWithError(w, http.StatusBadRequest, "channel_id and message_id are required")
		return
	}

	ref := checkin.MessageRef{ChannelID: req.ChannelID, MessageID: req.MessageID}
	eval, err := h.quorumService.OnApprovalSignal(ctx, ref, time.Now())
	if err != nil {
		log.Printf("ApprovalSignal Handler: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to evaluate approval signal")
		return
	}

	respondWithJSON(w, http.StatusOK, eval)
}

// GetStreak returns one user's streak state.
func (h *CheckinHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	platformUserID := mux.Vars(r)["platformUserID"]
	us, err := h.streakService.Get(ctx, platformUserID)
	if err != nil {
		if errors.Is(err, checkin.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "No streak yet")
			return
		}
		log.Printf("GetStreak Handler: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get streak")
		return
	}

	respondWithJSON(w, http.StatusOK, us)
}

// GetLeaderboard returns the current projection.
func (h *CheckinHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	lb, err := h.streakService.Leaderboard(ctx, queryLimit(r, 0))
	if err != nil {
		log.Printf("GetLeaderboard Handler: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get leaderboard")
		return
	}

	respondWithJSON(w, http.StatusOK, lb)
}
