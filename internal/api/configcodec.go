package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/gray-logic-sensors/internal/sensorconfig"
)

// codecRequest is the body of the stateless /config endpoints.
type codecRequest struct {
	Text           *string         `json:"text,omitempty"`
	Config         json.RawMessage `json:"config,omitempty"`
	QuoteAmbiguous bool            `json:"quote_ambiguous,omitempty"`
	Lang           string          `json:"lang,omitempty"`
}

// handleParseConfig turns configuration text into its JSON object form.
// Failures answer 400 with the parse error kind as the code.
func (s *Server) handleParseConfig(w http.ResponseWriter, r *http.Request) {
	var req codecRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Text == nil {
		writeBadRequest(w, "text is required")
		return
	}

	cfg, err := sensorconfig.Parse(*req.Text)
	if err != nil {
		writeConfigError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"config": cfg,
		"keys":   cfg.Len(),
	})
}

// handleStringifyConfig renders a JSON configuration object as text.
func (s *Server) handleStringifyConfig(w http.ResponseWriter, r *http.Request) {
	var req codecRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Config) == 0 {
		writeBadRequest(w, "config is required")
		return
	}

	cfg, err := sensorconfig.FromJSON(req.Config)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		writeConfigError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"text": sensorconfig.Stringify(cfg, stringifyOptions(req.QuoteAmbiguous)...),
	})
}

// handleDisplayConfig formats text or a JSON object for the read-only view.
func (s *Server) handleDisplayConfig(w http.ResponseWriter, r *http.Request) {
	var req codecRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	lang := req.Lang
	if q := r.URL.Query().Get("lang"); q != "" {
		lang = q
	}
	labels := s.labels(lang)

	var (
		rows []sensorconfig.Row
		err  error
	)
	switch {
	case req.Text != nil:
		var cfg *sensorconfig.Config
		if cfg, err = sensorconfig.Parse(*req.Text); err == nil {
			rows = sensorconfig.FormatWith(cfg, labels)
		}
	case len(req.Config) > 0:
		rows, err = sensorconfig.FormatJSON(req.Config, labels)
	default:
		writeBadRequest(w, "text or config is required")
		return
	}
	if err != nil {
		writeConfigError(w, err)
		return
	}

	if rows == nil {
		rows = []sensorconfig.Row{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":   rows,
		"groups": sensorconfig.Group(rows),
	})
}
