package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-sensors/internal/audit"
	"github.com/nerrad567/gray-logic-sensors/internal/sensorconfig"
	"github.com/nerrad567/gray-logic-sensors/internal/sensortype"
)

// rootSection is the URL placeholder for the root scope of a configuration.
const rootSection = "_"

// sensorTypeRequest is the body of POST and PUT /sensor-types. The
// configuration arrives either as editable text or as a JSON object;
// text wins when both are present.
type sensorTypeRequest struct {
	SensorType  string          `json:"sensor_type"`
	Description string          `json:"description"`
	ConfigText  *string         `json:"config_text,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// sensorTypeResponse adds the text rendering to a sensor type.
type sensorTypeResponse struct {
	*sensortype.SensorType
	ConfigText string `json:"config_text"`
}

func newSensorTypeResponse(t *sensortype.SensorType) sensorTypeResponse {
	return sensorTypeResponse{SensorType: t, ConfigText: t.ConfigText()}
}

// decodeConfig turns the request's configuration into a Config.
func (req sensorTypeRequest) decodeConfig() (*sensorconfig.Config, error) {
	switch {
	case req.ConfigText != nil:
		return sensorconfig.Parse(*req.ConfigText)
	case len(req.Config) > 0 && string(req.Config) != "null":
		return sensorconfig.FromJSON(req.Config)
	default:
		return nil, fmt.Errorf("config_text or config is required")
	}
}

// handleListSensorTypes returns the catalogue, optionally filtered by a
// case-insensitive keyword matched against name and description.
func (s *Server) handleListSensorTypes(w http.ResponseWriter, r *http.Request) {
	types := s.sensorTypes.List(r.Context())

	if kw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("keyword"))); kw != "" {
		filtered := types[:0]
		for _, t := range types {
			if strings.Contains(strings.ToLower(t.Name), kw) || strings.Contains(strings.ToLower(t.Description), kw) {
				filtered = append(filtered, t)
			}
		}
		types = filtered
	}

	out := make([]sensorTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, newSensorTypeResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sensor_types": out, "count": len(out)})
}

// handleGetSensorType returns a single sensor type.
func (s *Server) handleGetSensorType(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lookupSensorType(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSensorTypeResponse(t))
}

// handleCreateSensorType adds a sensor type to the catalogue.
func (s *Server) handleCreateSensorType(w http.ResponseWriter, r *http.Request) {
	var req sensorTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	cfg, err := req.decodeConfig()
	if err != nil {
		writeConfigError(w, err)
		return
	}

	user := usernameFrom(r.Context())
	t := &sensortype.SensorType{
		Name:        strings.TrimSpace(req.SensorType),
		Description: req.Description,
		Config:      cfg,
		UpdatedBy:   user,
	}
	if err := s.sensorTypes.Create(r.Context(), t); err != nil {
		s.writeSensorTypeError(w, err, "failed to create sensor type")
		return
	}

	s.auditLog(audit.ActionCreate, audit.EntitySensorType, t.Name, user, map[string]any{"keys": t.Config.Len()})
	writeJSON(w, http.StatusCreated, newSensorTypeResponse(t))
}

// handleUpdateSensorType replaces the description and configuration of a
// sensor type. The name in the URL is authoritative.
func (s *Server) handleUpdateSensorType(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "type")

	var req sensorTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	cfg, err := req.decodeConfig()
	if err != nil {
		writeConfigError(w, err)
		return
	}

	user := usernameFrom(r.Context())
	t := &sensortype.SensorType{
		Name:        name,
		Description: req.Description,
		Config:      cfg,
		UpdatedBy:   user,
	}
	if err := s.sensorTypes.Update(r.Context(), t); err != nil {
		s.writeSensorTypeError(w, err, "failed to update sensor type")
		return
	}

	s.auditLog(audit.ActionUpdate, audit.EntitySensorType, name, user, map[string]any{"keys": t.Config.Len()})
	writeJSON(w, http.StatusOK, newSensorTypeResponse(t))
}

// handleDeleteSensorType removes a sensor type no sensor references.
func (s *Server) handleDeleteSensorType(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "type")

	if err := s.sensorTypes.Delete(r.Context(), name); err != nil {
		if errors.Is(err, sensortype.ErrInUse) {
			n, countErr := s.sensors.CountByType(r.Context(), name)
			if countErr == nil {
				writeConflict(w, fmt.Sprintf("sensor type is used by %d sensor(s)", n))
				return
			}
		}
		s.writeSensorTypeError(w, err, "failed to delete sensor type")
		return
	}

	s.auditLog(audit.ActionDelete, audit.EntitySensorType, name, usernameFrom(r.Context()), nil)
	w.WriteHeader(http.StatusNoContent)
}

// handleGetSensorTypeConfig returns the configuration as a JSON object.
func (s *Server) handleGetSensorTypeConfig(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lookupSensorType(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, t.Config)
}

// handleGetSensorTypeConfigText returns the configuration in its editable
// text form. Clients asking for text/plain get the bare text.
func (s *Server) handleGetSensorTypeConfigText(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lookupSensorType(w, r)
	if !ok {
		return
	}
	text := sensorconfig.Stringify(t.Config, stringifyOptions(r.URL.Query().Get("quote_ambiguous") == "true")...)

	if strings.Contains(r.Header.Get("Accept"), "text/plain") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // Best-effort write to response; connection may be closed
		w.Write([]byte(text))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sensor_type": t.Name, "config_text": text})
}

// handleGetSensorTypeConfigDisplay returns labelled rows for the detail view.
func (s *Server) handleGetSensorTypeConfigDisplay(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lookupSensorType(w, r)
	if !ok {
		return
	}
	rows := sensorconfig.FormatWith(t.Config, s.labels(r.URL.Query().Get("lang")))
	writeJSON(w, http.StatusOK, map[string]any{
		"sensor_type": t.Name,
		"rows":        rows,
		"groups":      sensorconfig.Group(rows),
	})
}

// configValueRequest is the body of PUT /sensor-types/{type}/config/{section}/{key}.
// Value is a JSON scalar; Text is coerced like a value in configuration text.
type configValueRequest struct {
	Value any     `json:"value"`
	Text  *string `json:"text,omitempty"`
}

// handleSetConfigValue changes one configuration value in place.
func (s *Server) handleSetConfigValue(w http.ResponseWriter, r *http.Request) {
	name, section, key := pathParam(r, "type"), configSection(r), pathParam(r, "key")

	var req configValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	var v sensorconfig.Value
	if req.Text != nil {
		v = sensorconfig.Coerce(*req.Text)
	} else {
		var ok bool
		if v, ok = sensorconfig.ValueOf(req.Value); !ok {
			writeValidationError(w, "value must be a boolean, number or string")
			return
		}
	}

	user := usernameFrom(r.Context())
	t, err := s.sensorTypes.SetConfigValue(r.Context(), name, section, key, v, user)
	if err != nil {
		s.writeSensorTypeError(w, err, "failed to set configuration value")
		return
	}

	s.auditLog(audit.ActionUpdate, audit.EntitySensorType, name, user, map[string]any{
		"section": section,
		"key":     key,
		"value":   v.Interface(),
	})
	writeJSON(w, http.StatusOK, newSensorTypeResponse(t))
}

// handleDeleteConfigValue removes one configuration value.
func (s *Server) handleDeleteConfigValue(w http.ResponseWriter, r *http.Request) {
	name, section, key := pathParam(r, "type"), configSection(r), pathParam(r, "key")

	user := usernameFrom(r.Context())
	t, err := s.sensorTypes.DeleteConfigValue(r.Context(), name, section, key, user)
	if err != nil {
		s.writeSensorTypeError(w, err, "failed to delete configuration value")
		return
	}

	s.auditLog(audit.ActionDelete, audit.EntitySensorType, name, user, map[string]any{
		"section": section,
		"key":     key,
	})
	writeJSON(w, http.StatusOK, newSensorTypeResponse(t))
}

// lookupSensorType loads the sensor type named in the URL, writing the
// error response itself when that fails.
func (s *Server) lookupSensorType(w http.ResponseWriter, r *http.Request) (*sensortype.SensorType, bool) {
	t, err := s.sensorTypes.Get(r.Context(), pathParam(r, "type"))
	if err != nil {
		s.writeSensorTypeError(w, err, "failed to get sensor type")
		return nil, false
	}
	return t, true
}

// writeSensorTypeError maps catalogue errors onto HTTP responses.
func (s *Server) writeSensorTypeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, sensortype.ErrNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, sensortype.ErrExists), errors.Is(err, sensortype.ErrInUse):
		writeConflict(w, err.Error())
	case errors.Is(err, sensortype.ErrInvalidName),
		errors.Is(err, sensortype.ErrInvalidDescription),
		errors.Is(err, sensortype.ErrInvalidConfig):
		writeValidationError(w, err.Error())
	default:
		s.logger.Error(fallback, "error", err)
		writeInternalError(w, fallback)
	}
}

// labels picks the display labels for lang, falling back to the configured
// default locale.
func (s *Server) labels(lang string) sensorconfig.Labels {
	if lang == "" {
		lang = s.catCfg.DefaultLocale
	}
	return sensorconfig.LabelsFor(lang)
}

// configSection returns the section named in the URL; "_" is the root scope.
func configSection(r *http.Request) string {
	section := pathParam(r, "section")
	if section == rootSection {
		return ""
	}
	return section
}

// pathParam returns a decoded URL parameter. chi hands back the escaped
// form when the request path contains percent-encoding.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func stringifyOptions(quoteAmbiguous bool) []sensorconfig.StringifyOption {
	if quoteAmbiguous {
		return []sensorconfig.StringifyOption{sensorconfig.WithQuotedAmbiguousStrings()}
	}
	return nil
}
