package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/triptales/triptales-backend/internal/config"
	"github.com/triptales/triptales-backend/internal/services"
)

var summarizer *services.Summarizer

// InitSummarizer configures the server-side summarization proxy. The
// OpenRouter key never leaves the server.
func InitSummarizer(cfg *config.Config) {
	summarizer = services.NewSummarizer(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, cfg.SummaryModel, cfg.SummaryMaxTokens)
}

type GenerateSummaryRequest struct {
	Notes string `json:"notes"`
}

type GenerateSummaryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// GenerateSummary produces an AI summary of the draft's notes. Calling it
// again returns a fresh summary; the client replaces the old one wholesale.
// A failure here never touches the rest of the draft.
func GenerateSummary(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAuth(r); !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(GenerateSummaryResponse{
			Success: false,
			Message: "Authentication required",
		})
		return
	}

	var req GenerateSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(GenerateSummaryResponse{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	if strings.TrimSpace(req.Notes) == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(GenerateSummaryResponse{
			Success: false,
			Message: "Notes are required to generate a summary",
		})
		return
	}

	summary, err := summarizer.Summarize(r.Context(), req.Notes)
	if err != nil {
		var remoteErr *services.RemoteServiceError
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		if errors.As(err, &remoteErr) {
			// Well-formed service error: surface its message as-is.
			json.NewEncoder(w).Encode(GenerateSummaryResponse{
				Success: false,
				Message: remoteErr.Message,
			})
			return
		}
		log.Printf("[GenerateSummary] request failed: %v", err)
		json.NewEncoder(w).Encode(GenerateSummaryResponse{
			Success: false,
			Message: "Error generating summary",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GenerateSummaryResponse{
		Success: true,
		Summary: summary,
	})
}
