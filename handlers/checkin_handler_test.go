package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"streakWardenAPI/internal/config"
	"streakWardenAPI/services"
)

func testCheckinHandler() *CheckinHandler {
	cfg := &config.Config{
		ValidationQuorum:   1,
		MinReflectionChars: 150,
		MinHours:           20,
		MaxHours:           28,
		SimilarityBlock:    0.90,
		LeaderboardSize:    10,
	}
	// Validation failures return before the pool is ever touched.
	return NewCheckinHandler(services.NewCheckinService(nil, cfg), nil, nil, nil)
}

func TestSubmitRejectsMalformedBody(t *testing.T) {
	h := testCheckinHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkins", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	h.Submit(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSubmitRequiresUser(t *testing.T) {
	h := testCheckinHandler()

	body := `{"day": "1", "reflection": "short"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkins", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.Submit(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSubmitRejectsInvalidDay(t *testing.T) {
	h := testCheckinHandler()

	body := `{"platform_user_id": "u1", "day": "not-a-number", "reflection": "short"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkins", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.Submit(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestApprovalSignalRequiresMessageRef(t *testing.T) {
	h := testCheckinHandler()

	body := `{"platform_user_id": "v1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/signals/approval", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.ApprovalSignal(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
