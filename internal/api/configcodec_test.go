package api

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestParseConfigEndpoint(t *testing.T) {
	e := testServer(t)

	tests := []struct {
		name     string
		body     any
		want     int
		wantCode string
		wantLine float64
		wantRaw  string
	}{
		{"sectioned", map[string]any{"text": "[A]\nx=1\ny=true"}, http.StatusOK, "", 0, ""},
		{"flat", map[string]any{"text": "host=10.0.0.1\nport=502"}, http.StatusOK, "", 0, ""},
		{"empty", map[string]any{"text": ""}, http.StatusBadRequest, "empty_input", 0, ""},
		{"whitespace only", map[string]any{"text": "   \n\t"}, http.StatusBadRequest, "empty_config", 0, ""},
		{"malformed", map[string]any{"text": "[A]\nx=1\n  garbage  "}, http.StatusBadRequest, "malformed_line", 3, "  garbage  "},
		{"unbalanced header", map[string]any{"text": "[A\nx=1"}, http.StatusBadRequest, "malformed_line", 1, "[A"},
		{"missing text", map[string]any{}, http.StatusBadRequest, ErrCodeBadRequest, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/api/v1/config/parse", tt.body)
			wantStatus(t, w, tt.want)

			var resp map[string]any
			decodeBody(t, w, &resp)
			if tt.want == http.StatusOK {
				if _, ok := resp["config"].(map[string]any); !ok {
					t.Errorf("config missing: %v", resp)
				}
				return
			}
			if resp["code"] != tt.wantCode {
				t.Errorf("code = %v, want %s", resp["code"], tt.wantCode)
			}
			if tt.wantLine != 0 && (resp["line"] != tt.wantLine || resp["raw"] != tt.wantRaw) {
				t.Errorf("line/raw = %v/%q, want %v/%q", resp["line"], resp["raw"], tt.wantLine, tt.wantRaw)
			}
		})
	}
}

func TestParseConfigCoercesValues(t *testing.T) {
	e := testServer(t)

	w := e.do(t, http.MethodPost, "/api/v1/config/parse", map[string]any{
		"text": "[S]\nn=-3.5\nb=false\ns=\"42\"\nh=0x40",
	})
	wantStatus(t, w, http.StatusOK)

	var resp struct {
		Config map[string]map[string]any `json:"config"`
		Keys   int                       `json:"keys"`
	}
	decodeBody(t, w, &resp)
	s := resp.Config["S"]
	if s["n"] != -3.5 || s["b"] != false || s["s"] != "42" || s["h"] != "0x40" {
		t.Errorf("S = %v", s)
	}
	if resp.Keys != 4 {
		t.Errorf("keys = %d, want 4", resp.Keys)
	}
}

func TestStringifyConfigEndpoint(t *testing.T) {
	e := testServer(t)

	tests := []struct {
		name string
		body any
		want int
		text string
	}{
		{
			name: "root then sections",
			body: map[string]any{"config": map[string]any{"version": 2, "A": map[string]any{"x": 1.5, "on": true}}},
			want: http.StatusOK,
			text: "version=2\n\n[A]\non=true\nx=1.5",
		},
		{
			name: "ambiguous strings quoted",
			body: map[string]any{"config": map[string]any{"A": map[string]any{"id": "42"}}, "quote_ambiguous": true},
			want: http.StatusOK,
			text: "[A]\nid=\"42\"",
		},
		{
			name: "ambiguous strings plain by default",
			body: map[string]any{"config": map[string]any{"A": map[string]any{"id": "42"}}},
			want: http.StatusOK,
			text: "[A]\nid=42",
		},
		{"missing config", map[string]any{}, http.StatusBadRequest, ""},
		{"not an object", map[string]any{"config": "text"}, http.StatusBadRequest, ""},
		{"unwritable key", map[string]any{"config": map[string]any{"S": map[string]any{"k\nbad": 2}}}, http.StatusBadRequest, ""},
		{"out of range number", map[string]any{"config": json.RawMessage(`{"Range":{"max":1e400}}`)}, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/api/v1/config/stringify", tt.body)
			wantStatus(t, w, tt.want)
			if tt.want != http.StatusOK {
				return
			}
			var resp map[string]string
			decodeBody(t, w, &resp)
			if resp["text"] != tt.text {
				t.Errorf("text = %q, want %q", resp["text"], tt.text)
			}
		})
	}
}

func TestDisplayConfigEndpoint(t *testing.T) {
	e := testServer(t)

	type displayResp struct {
		Rows []struct {
			Section string `json:"section"`
			Key     string `json:"key"`
			Label   string `json:"label"`
		} `json:"rows"`
		Groups []struct {
			Section string `json:"section"`
		} `json:"groups"`
	}

	w := e.do(t, http.MethodPost, "/api/v1/config/display", map[string]any{
		"text": "description=lab\n[Comm]\nport=502\ncustom=1",
	})
	wantStatus(t, w, http.StatusOK)
	var resp displayResp
	decodeBody(t, w, &resp)
	// Root keys are left out once the config has sections.
	if len(resp.Rows) != 2 || len(resp.Groups) != 1 {
		t.Fatalf("display = %+v", resp)
	}
	if resp.Rows[0].Section != "Comm" || resp.Rows[0].Label != "Port" {
		t.Errorf("first row = %+v", resp.Rows[0])
	}
	if resp.Rows[1].Label != "custom" {
		t.Errorf("unknown key label = %q", resp.Rows[1].Label)
	}

	w = e.do(t, http.MethodPost, "/api/v1/config/display", map[string]any{"text": "description=lab\nport=502"})
	wantStatus(t, w, http.StatusOK)
	resp = displayResp{}
	decodeBody(t, w, &resp)
	if len(resp.Rows) != 2 || resp.Rows[0].Section != "" || resp.Rows[0].Label != "Description" {
		t.Errorf("flat display = %+v", resp)
	}

	// Stored JSON with unusable members yields rows for the rest.
	w = e.do(t, http.MethodPost, "/api/v1/config/display?lang=zh", map[string]any{
		"config": map[string]any{"list": []int{1, 2}, "Comm": map[string]any{"port": 502}, "nothing": nil},
	})
	wantStatus(t, w, http.StatusOK)
	resp = displayResp{}
	decodeBody(t, w, &resp)
	if len(resp.Rows) != 1 || resp.Rows[0].Label != "端口号" {
		t.Errorf("rows = %+v", resp.Rows)
	}

	wantStatus(t, e.do(t, http.MethodPost, "/api/v1/config/display", map[string]any{"text": "oops"}), http.StatusBadRequest)
	wantStatus(t, e.do(t, http.MethodPost, "/api/v1/config/display", map[string]any{}), http.StatusBadRequest)
}
