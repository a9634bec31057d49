package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const tempConfig = "[Communication]\nprotocol=Modbus\nbaudRate=9600\naddress=0x40\n\n[Measurement]\nunit=C\nmin=-40\nmax=125\nenable=true"

func TestSensorTypeCRUD(t *testing.T) {
	e := testServer(t)

	// Create from text.
	w := e.do(t, http.MethodPost, "/api/v1/sensor-types", map[string]any{
		"sensor_type": "Temperature",
		"description": "PT100 probe",
		"config_text": tempConfig,
	})
	wantStatus(t, w, http.StatusCreated)

	var created map[string]any
	decodeBody(t, w, &created)
	if created["sensor_type"] != "Temperature" || created["updated_by"] != "admin" {
		t.Errorf("created = %v", created)
	}
	if created["config_text"] != tempConfig {
		t.Errorf("config_text = %q, want %q", created["config_text"], tempConfig)
	}
	comm, ok := created["config"].(map[string]any)["Communication"].(map[string]any)
	if !ok || comm["baudRate"] != float64(9600) || comm["address"] != "0x40" {
		t.Errorf("config = %v", created["config"])
	}

	// Duplicate name.
	w = e.do(t, http.MethodPost, "/api/v1/sensor-types", map[string]any{
		"sensor_type": "Temperature",
		"description": "again",
		"config_text": "unit=C",
	})
	wantStatus(t, w, http.StatusConflict)

	// Create from a JSON object.
	w = e.do(t, http.MethodPost, "/api/v1/sensor-types", map[string]any{
		"sensor_type": "Level",
		"description": "Ultrasonic level",
		"config":      map[string]any{"Measurement": map[string]any{"unit": "m", "max": 12}},
	})
	wantStatus(t, w, http.StatusCreated)

	// List and keyword filter.
	w = e.do(t, http.MethodGet, "/api/v1/sensor-types", nil)
	wantStatus(t, w, http.StatusOK)
	var list struct {
		SensorTypes []map[string]any `json:"sensor_types"`
		Count       int              `json:"count"`
	}
	decodeBody(t, w, &list)
	if list.Count != 2 || list.SensorTypes[0]["sensor_type"] != "Level" {
		t.Errorf("list = %+v", list)
	}

	w = e.do(t, http.MethodGet, "/api/v1/sensor-types?keyword=pt100", nil)
	decodeBody(t, w, &list)
	if list.Count != 1 || list.SensorTypes[0]["sensor_type"] != "Temperature" {
		t.Errorf("keyword list = %+v", list)
	}

	// Update replaces description and config.
	w = e.do(t, http.MethodPut, "/api/v1/sensor-types/Level", map[string]any{
		"description": "Radar level",
		"config_text": "[Measurement]\nunit=cm",
	})
	wantStatus(t, w, http.StatusOK)
	var updated map[string]any
	decodeBody(t, w, &updated)
	if updated["description"] != "Radar level" || updated["config_text"] != "[Measurement]\nunit=cm" {
		t.Errorf("updated = %v", updated)
	}

	w = e.do(t, http.MethodPut, "/api/v1/sensor-types/Missing", map[string]any{
		"description": "x",
		"config_text": "unit=C",
	})
	wantStatus(t, w, http.StatusNotFound)

	// Delete.
	wantStatus(t, e.do(t, http.MethodDelete, "/api/v1/sensor-types/Level", nil), http.StatusNoContent)
	wantStatus(t, e.do(t, http.MethodGet, "/api/v1/sensor-types/Level", nil), http.StatusNotFound)
	wantStatus(t, e.do(t, http.MethodDelete, "/api/v1/sensor-types/Level", nil), http.StatusNotFound)
}

func TestCreateSensorTypeRejects(t *testing.T) {
	e := testServer(t)

	tests := []struct {
		name     string
		body     any
		wantCode string
		wantLine float64
	}{
		{
			name:     "malformed line",
			body:     map[string]any{"sensor_type": "A", "description": "d", "config_text": "[Comm]\noops"},
			wantCode: "malformed_line",
			wantLine: 2,
		},
		{
			name:     "empty section name",
			body:     map[string]any{"sensor_type": "A", "description": "d", "config_text": "[ ]\nk=v"},
			wantCode: "empty_section_name",
			wantLine: 1,
		},
		{
			name:     "empty key",
			body:     map[string]any{"sensor_type": "A", "description": "d", "config_text": "[S]\n=5"},
			wantCode: "empty_key",
			wantLine: 2,
		},
		{
			name:     "empty input",
			body:     map[string]any{"sensor_type": "A", "description": "d", "config_text": ""},
			wantCode: "empty_input",
		},
		{
			name:     "comments only",
			body:     map[string]any{"sensor_type": "A", "description": "d", "config_text": "; nothing\n# here"},
			wantCode: "empty_config",
		},
		{
			name:     "no config",
			body:     map[string]any{"sensor_type": "A", "description": "d"},
			wantCode: ErrCodeInvalidConfig,
		},
		{
			name:     "config not an object",
			body:     map[string]any{"sensor_type": "A", "description": "d", "config": []int{1}},
			wantCode: ErrCodeInvalidConfig,
		},
		{
			name:     "empty JSON object",
			body:     map[string]any{"sensor_type": "A", "description": "d", "config": map[string]any{}},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "bad name",
			body:     map[string]any{"sensor_type": "a b", "description": "d", "config_text": "k=v"},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "missing description",
			body:     map[string]any{"sensor_type": "A", "config_text": "k=v"},
			wantCode: ErrCodeValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/api/v1/sensor-types", tt.body)
			wantStatus(t, w, http.StatusBadRequest)

			var resp map[string]any
			decodeBody(t, w, &resp)
			if resp["code"] != tt.wantCode {
				t.Errorf("code = %v, want %s (%v)", resp["code"], tt.wantCode, resp["message"])
			}
			if tt.wantLine != 0 && resp["line"] != tt.wantLine {
				t.Errorf("line = %v, want %v", resp["line"], tt.wantLine)
			}
		})
	}
}

func TestSensorTypeConfigViews(t *testing.T) {
	e := testServer(t)
	e.createType(t, "Temperature", tempConfig)

	w := e.do(t, http.MethodGet, "/api/v1/sensor-types/Temperature/config", nil)
	wantStatus(t, w, http.StatusOK)
	// Sections keep their document order.
	body := w.Body.String()
	if strings.Index(body, "Communication") > strings.Index(body, "Measurement") {
		t.Errorf("section order lost: %s", body)
	}

	w = e.do(t, http.MethodGet, "/api/v1/sensor-types/Temperature/config/text", nil)
	wantStatus(t, w, http.StatusOK)
	var text map[string]string
	decodeBody(t, w, &text)
	if text["config_text"] != tempConfig {
		t.Errorf("config_text = %q", text["config_text"])
	}

	req := doWithHeader(t, e, http.MethodGet, "/api/v1/sensor-types/Temperature/config/text", "Accept", "text/plain")
	if req.Body.String() != tempConfig || !strings.HasPrefix(req.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("plain text = %q (%s)", req.Body.String(), req.Header().Get("Content-Type"))
	}

	w = e.do(t, http.MethodGet, "/api/v1/sensor-types/Temperature/config/display?lang=zh-CN", nil)
	wantStatus(t, w, http.StatusOK)
	var display struct {
		Rows []struct {
			Section string `json:"section"`
			Key     string `json:"key"`
			Label   string `json:"label"`
		} `json:"rows"`
		Groups []struct {
			Section string `json:"section"`
		} `json:"groups"`
	}
	decodeBody(t, w, &display)
	if len(display.Rows) != 7 || len(display.Groups) != 2 {
		t.Fatalf("display = %+v", display)
	}
	if display.Rows[1].Key != "baudRate" || display.Rows[1].Label != "波特率" {
		t.Errorf("row = %+v", display.Rows[1])
	}

	w = e.do(t, http.MethodGet, "/api/v1/sensor-types/Temperature/config/display", nil)
	decodeBody(t, w, &display)
	if display.Rows[1].Label != "Baud Rate" {
		t.Errorf("default label = %q", display.Rows[1].Label)
	}

	wantStatus(t, e.do(t, http.MethodGet, "/api/v1/sensor-types/Nope/config", nil), http.StatusNotFound)
}

func TestConfigValueEndpoints(t *testing.T) {
	e := testServer(t)
	e.createType(t, "Temperature", tempConfig)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
		check  string
	}{
		{"set number", http.MethodPut, "/config/Communication/baudRate", map[string]any{"value": 19200}, http.StatusOK, "baudRate=19200"},
		{"set from text", http.MethodPut, "/config/Measurement/enable", map[string]any{"text": "false"}, http.StatusOK, "enable=false"},
		{"new section", http.MethodPut, "/config/Calibration/calibrationDate", map[string]any{"value": "2026-03-01"}, http.StatusOK, "[Calibration]\ncalibrationDate=2026-03-01"},
		{"root key", http.MethodPut, "/config/_/version", map[string]any{"text": "2"}, http.StatusOK, "version=2\n\n[Communication]"},
		{"escaped section", http.MethodPut, "/config/Alarm%20Limits/high", map[string]any{"value": 90}, http.StatusOK, "[Alarm Limits]\nhigh=90"},
		{"null value", http.MethodPut, "/config/Measurement/unit", map[string]any{"value": nil}, http.StatusBadRequest, ""},
		{"object value", http.MethodPut, "/config/Measurement/unit", map[string]any{"value": map[string]int{"a": 1}}, http.StatusBadRequest, ""},
		{"equals in key", http.MethodPut, "/config/Measurement/a%3Db", map[string]any{"value": 1}, http.StatusBadRequest, ""},
		{"comment key", http.MethodPut, "/config/Measurement/%23note", map[string]any{"value": "x"}, http.StatusBadRequest, ""},
		{"padded section", http.MethodPut, "/config/%20Range/max", map[string]any{"value": 1}, http.StatusBadRequest, ""},
		{"multiline value", http.MethodPut, "/config/Measurement/unit", map[string]any{"value": "C\n[Evil]"}, http.StatusBadRequest, ""},
		{"unknown type", http.MethodPut, "/config/Measurement/unit", map[string]any{"value": "K"}, http.StatusNotFound, ""},
		{"delete key", http.MethodDelete, "/config/Measurement/min", nil, http.StatusOK, "unit=C\nmax=125"},
		{"delete missing key", http.MethodDelete, "/config/Measurement/nope", nil, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := "/api/v1/sensor-types/Temperature"
			if tt.name == "unknown type" {
				base = "/api/v1/sensor-types/Missing"
			}
			w := e.do(t, tt.method, base+tt.path, tt.body)
			wantStatus(t, w, tt.want)
			if tt.check == "" {
				return
			}
			var resp map[string]any
			decodeBody(t, w, &resp)
			if text, _ := resp["config_text"].(string); !strings.Contains(text, tt.check) {
				t.Errorf("config_text = %q, want it to contain %q", text, tt.check)
			}
		})
	}
}

func TestDeleteLastConfigValueRejected(t *testing.T) {
	e := testServer(t)
	e.createType(t, "Single", "[M]\nunit=C")

	w := e.do(t, http.MethodDelete, "/api/v1/sensor-types/Single/config/M/unit", nil)
	wantStatus(t, w, http.StatusBadRequest)
}

func TestDeleteSensorTypeInUse(t *testing.T) {
	e := testServer(t)
	e.createType(t, "Temperature", tempConfig)
	wantStatus(t, e.do(t, http.MethodPost, "/api/v1/sensors", tcpSensorBody("T-1")), http.StatusCreated)

	w := e.do(t, http.MethodDelete, "/api/v1/sensor-types/Temperature", nil)
	wantStatus(t, w, http.StatusConflict)
	if !strings.Contains(w.Body.String(), "1 sensor(s)") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func doWithHeader(t *testing.T, e *testEnv, method, path, key, value string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set(key, value)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
