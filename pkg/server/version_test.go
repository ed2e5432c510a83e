package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNegotiateAPIVersion(t *testing.T) {
	tests := []struct {
		name   string
		accept string
		want   string
	}{
		{"empty", "", "v1"},
		{"json", "application/json", "v1"},
		{"vendor v1", "application/vnd.nvidia.serverbuilder.v1+json", "v1"},
		{"vendor with params", "text/html, application/vnd.nvidia.serverbuilder.v1+yaml; q=0.9", "v1"},
		{"unknown version", "application/vnd.nvidia.serverbuilder.v9+json", "v1"},
		{"other vendor", "application/vnd.other.v2+json", "v1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			if got := negotiateAPIVersion(r); got != tt.want {
				t.Errorf("negotiateAPIVersion = %q, want %q", got, tt.want)
			}
		})
	}
}
