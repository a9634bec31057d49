package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-sensors/internal/audit"
	"github.com/nerrad567/gray-logic-sensors/internal/sensor"
	"github.com/nerrad567/gray-logic-sensors/internal/sensorconfig"
)

// sensorResponse adds the merged configuration to a sensor.
type sensorResponse struct {
	*sensor.Sensor
	EffectiveConfig *sensorconfig.Config `json:"effective_config,omitempty"`
}

// statusRequest is the body of PUT /sensors/{id}/status.
type statusRequest struct {
	Enable *bool `json:"enable"`
}

// handleListSensors returns one page of sensors. Filters travel in the
// request body so the console can post its search form as is.
func (s *Server) handleListSensors(w http.ResponseWriter, r *http.Request) {
	var filter sensor.Filter
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
			writeBadRequest(w, "invalid JSON body")
			return
		}
	}

	page, err := s.sensors.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list sensors", "error", err)
		writeInternalError(w, "failed to list sensors")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleGetSensor returns a sensor with its type defaults merged in.
func (s *Server) handleGetSensor(w http.ResponseWriter, r *http.Request) {
	sn, err := s.sensors.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		s.writeSensorError(w, err, "failed to get sensor")
		return
	}

	resp := sensorResponse{Sensor: sn}
	if t, err := s.sensorTypes.Get(r.Context(), sn.SensorType); err == nil {
		resp.EffectiveConfig = sn.EffectiveConfig(t.Config)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCreateSensor adds a sensor to the inventory.
func (s *Server) handleCreateSensor(w http.ResponseWriter, r *http.Request) {
	var sn sensor.Sensor
	if err := json.NewDecoder(r.Body).Decode(&sn); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	sn.ID = ""
	sn.LastUpdateUser = usernameFrom(r.Context())

	if !s.validSensor(w, r, &sn) {
		return
	}
	if err := s.sensors.Create(r.Context(), &sn); err != nil {
		s.writeSensorError(w, err, "failed to create sensor")
		return
	}

	s.auditLog(audit.ActionCreate, audit.EntitySensor, sn.ID, sn.LastUpdateUser, map[string]any{
		"name":        sn.Name,
		"sensor_type": sn.SensorType,
	})
	s.broadcastSensorChange(audit.ActionCreate, sn.ID, &sn)
	writeJSON(w, http.StatusCreated, sn)
}

// handleUpdateSensor replaces a sensor. The ID in the URL is authoritative
// and created_at is preserved.
func (s *Server) handleUpdateSensor(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")

	existing, err := s.sensors.Get(r.Context(), id)
	if err != nil {
		s.writeSensorError(w, err, "failed to get sensor")
		return
	}

	var sn sensor.Sensor
	if err := json.NewDecoder(r.Body).Decode(&sn); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	sn.ID = id
	sn.CreatedAt = existing.CreatedAt
	sn.LastUpdateUser = usernameFrom(r.Context())

	if !s.validSensor(w, r, &sn) {
		return
	}
	if err := s.sensors.Update(r.Context(), &sn); err != nil {
		s.writeSensorError(w, err, "failed to update sensor")
		return
	}

	s.auditLog(audit.ActionUpdate, audit.EntitySensor, id, sn.LastUpdateUser, map[string]any{"name": sn.Name})
	s.broadcastSensorChange(audit.ActionUpdate, id, &sn)
	writeJSON(w, http.StatusOK, sn)
}

// handleUpdateSensorStatus enables or disables a sensor.
func (s *Server) handleUpdateSensorStatus(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Enable == nil {
		writeValidationError(w, "enable is required")
		return
	}

	user := usernameFrom(r.Context())
	if err := s.sensors.UpdateStatus(r.Context(), id, *req.Enable, user); err != nil {
		s.writeSensorError(w, err, "failed to update sensor status")
		return
	}

	sn, err := s.sensors.Get(r.Context(), id)
	if err != nil {
		s.writeSensorError(w, err, "failed to get sensor")
		return
	}

	s.auditLog(audit.ActionStatus, audit.EntitySensor, id, user, map[string]any{"enable": *req.Enable})
	s.broadcastSensorChange(audit.ActionStatus, id, sn)
	writeJSON(w, http.StatusOK, sn)
}

// handleDeleteSensor removes a sensor.
func (s *Server) handleDeleteSensor(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")

	if err := s.sensors.Delete(r.Context(), id); err != nil {
		s.writeSensorError(w, err, "failed to delete sensor")
		return
	}

	s.auditLog(audit.ActionDelete, audit.EntitySensor, id, usernameFrom(r.Context()), nil)
	s.broadcastSensorChange(audit.ActionDelete, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// validSensor checks field rules and the sensor type, writing a 400 when
// either fails.
func (s *Server) validSensor(w http.ResponseWriter, r *http.Request, sn *sensor.Sensor) bool {
	if err := sensor.Validate(sn); err != nil {
		writeValidationError(w, err.Error())
		return false
	}
	if !s.sensorTypes.Exists(r.Context(), sn.SensorType) {
		writeValidationError(w, sensor.ErrUnknownType.Error()+": "+sn.SensorType)
		return false
	}
	return true
}

// writeSensorError maps inventory errors onto HTTP responses.
func (s *Server) writeSensorError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, sensor.ErrNotFound):
		writeNotFound(w, "sensor not found")
	case errors.Is(err, sensor.ErrNameExists):
		writeConflict(w, err.Error())
	case errors.Is(err, sensor.ErrInvalidSensor), errors.Is(err, sensor.ErrUnknownType):
		writeValidationError(w, err.Error())
	default:
		s.logger.Error(fallback, "error", err)
		writeInternalError(w, fallback)
	}
}
