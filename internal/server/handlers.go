package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/mkessler/leadpulse/internal/types"
)

// parseQueryInt parses an integer query parameter with default and max values.
func parseQueryInt(r *http.Request, key string, defaultValue, maxValue int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		return defaultValue
	}
	if maxValue > 0 && val > maxValue {
		return maxValue
	}
	return val
}

// handleCreateLead registers a lead manually.
func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var req types.CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	lead, err := s.db.CreateLead(r.Context(), req)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusCreated, lead)
}

// handleListLeads lists active leads, most recently updated first.
func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	limit := parseQueryInt(r, "limit", 50, 200)

	leads, err := s.db.ListLeads(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"leads": leads,
		"count": len(leads),
	})
}

// handleHighIntentLeads lists active leads at or above the intent threshold.
func (s *Server) handleHighIntentLeads(w http.ResponseWriter, r *http.Request) {
	minScore := s.highIntentThreshold
	if v := r.URL.Query().Get("min_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid min_score")
			return
		}
		minScore = f
	}
	limit := parseQueryInt(r, "limit", 50, 200)

	leads, err := s.db.HighIntentLeads(r.Context(), minScore, limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"leads":     leads,
		"count":     len(leads),
		"min_score": minScore,
	})
}

// handleGetLead retrieves a lead by ID.
func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	leadID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}

	lead, err := s.db.GetLeadByID(r.Context(), leadID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if lead == nil {
		s.errorResponse(w, http.StatusNotFound, "Lead not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, lead)
}

// handleDeleteLead soft-deactivates a lead; its signals stay on record.
func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	leadID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}

	if err := s.db.DeactivateLead(r.Context(), leadID); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCollect hands a collection run off to the engine and returns
// immediately.
func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	leadID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}

	lead, err := s.db.GetLeadByID(r.Context(), leadID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if lead == nil {
		s.errorResponse(w, http.StatusNotFound, "Lead not found")
		return
	}

	s.runner.Trigger(leadID)
	s.jsonResponse(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"lead_id": leadID.String(),
	})
}

// handleListSignals returns a lead's signals, most recent first, optionally
// filtered by category and age.
func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	leadID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}

	var category types.Category
	if v := r.URL.Query().Get("category"); v != "" {
		category = types.Category(v)
		if !category.Valid() {
			s.errorResponse(w, http.StatusBadRequest, "Unknown category: "+v)
			return
		}
	}
	days := parseQueryInt(r, "days", s.recentWindowDays, 365)

	lead, err := s.db.GetLeadByID(r.Context(), leadID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if lead == nil {
		s.errorResponse(w, http.StatusNotFound, "Lead not found")
		return
	}

	signals, err := s.db.ListSignals(r.Context(), leadID, category, days)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"signals": signals,
		"count":   len(signals),
		"days":    days,
	})
}

// handleDiscoveryRun starts a discovery run in the background.
func (s *Server) handleDiscoveryRun(w http.ResponseWriter, _ *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		inserted, err := s.discovery.Run(ctx)
		if err != nil {
			log.Printf("discovery run failed: %v", err)
			return
		}
		log.Printf("discovery run finished: %d new leads", inserted)
	}()

	s.jsonResponse(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
