package serializer

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type payload struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusCreated, payload{Name: "cfg", Count: 3})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var got payload
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "cfg" || got.Count != 3 {
		t.Errorf("got %+v", got)
	}
}

func TestRespondJSONEncodingError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusOK, math.Inf(1))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestNegotiateFormat(t *testing.T) {
	tests := []struct {
		name   string
		target string
		accept string
		want   Format
	}{
		{name: "default", target: "/", want: FormatJSON},
		{name: "query yaml", target: "/?format=yaml", want: FormatYAML},
		{name: "query table", target: "/?format=TABLE", want: FormatTable},
		{name: "query unknown", target: "/?format=xml", accept: "application/yaml", want: FormatYAML},
		{name: "accept yaml", target: "/", accept: "application/x-yaml", want: FormatYAML},
		{name: "accept text", target: "/", accept: "text/plain", want: FormatTable},
		{name: "accept json", target: "/", accept: "application/json", want: FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			if got := NegotiateFormat(r); got != tt.want {
				t.Errorf("NegotiateFormat = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRespondYAML(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/?format=yaml", nil)
	Respond(rec, r, http.StatusOK, payload{Name: "cfg", Count: 1})

	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "name: cfg") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestReadJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"name":"a","count":1}`},
		{name: "empty", body: "", wantErr: true},
		{name: "unknown field", body: `{"name":"a","extra":true}`, wantErr: true},
		{name: "trailing", body: `{"name":"a"}{"name":"b"}`, wantErr: true},
		{name: "malformed", body: `{"name":`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := ReadJSON(r, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadJSON error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
