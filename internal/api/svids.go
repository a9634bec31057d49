package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// maxBatchSVIDs bounds POST /svids/batch.
const maxBatchSVIDs = 500

// batchRequest is the body of POST /svids/batch.
type batchRequest struct {
	SVIDs []string `json:"svids"`
}

// handleGetSVIDData returns the current reading of one SVID.
func (s *Server) handleGetSVIDData(w http.ResponseWriter, r *http.Request) {
	if s.telemetry == nil {
		writeUnavailable(w, "telemetry is not configured")
		return
	}

	svid := pathParam(r, "svid")
	reading, ok := s.telemetry.Get(svid)
	if !ok {
		writeNotFound(w, "no current reading for svid "+svid)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

// handleSVIDBatch returns current readings for several SVIDs in request
// order. Missing or stale SVIDs are reported per entry, not as a failure.
func (s *Server) handleSVIDBatch(w http.ResponseWriter, r *http.Request) {
	if s.telemetry == nil {
		writeUnavailable(w, "telemetry is not configured")
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.SVIDs) == 0 {
		writeValidationError(w, "svids must not be empty")
		return
	}
	if len(req.SVIDs) > maxBatchSVIDs {
		writeValidationError(w, fmt.Sprintf("at most %d svids per request", maxBatchSVIDs))
		return
	}
	for i, id := range req.SVIDs {
		req.SVIDs[i] = strings.TrimSpace(id)
	}

	writeJSON(w, http.StatusOK, map[string]any{"list": s.telemetry.GetBatch(req.SVIDs)})
}
