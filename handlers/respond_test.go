package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQueryLimit(t *testing.T) {
	tests := []struct {
		name string
		url  string
		def  int
		want int
	}{
		{"absent uses default", "/api/v1/leaderboard", 5, 5},
		{"valid value wins", "/api/v1/leaderboard?limit=3", 5, 3},
		{"garbage uses default", "/api/v1/leaderboard?limit=abc", 5, 5},
		{"negative uses default", "/api/v1/leaderboard?limit=-2", 5, 5},
		{"zero uses default", "/api/v1/leaderboard?limit=0", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if got := queryLimit(req, tt.def); got != tt.want {
				t.Errorf("queryLimit() = %d, want %d", got, tt.want)
			}
		})
	}
}
