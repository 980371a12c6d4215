package agentconfig

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req map[string]string
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "+4930123456", req["to_number"])
		assert.Equal(t, "+4917612345", req["from_number"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"config": map[string]any{
				"company_name": "Elektro Müller",
				"industry":     "elektro",
				"greeting":     "Guten Tag, Elektro Müller, wie kann ich helfen?",
				"voice_id":     "voice-123",
			},
		})
	}))
	defer srv.Close()

	cfg := NewResolver(srv.URL, nil).Resolve(context.Background(), "+4930123456", "+4917612345")
	assert.Equal(t, "Elektro Müller", cfg.CompanyName)
	assert.Equal(t, IndustryElectrical, cfg.Industry)
	assert.Equal(t, "Guten Tag, Elektro Müller, wie kann ich helfen?", cfg.Greeting)
	// unspecified fields still get their defaults
	assert.Equal(t, "Mo-Fr 8-17 Uhr", cfg.OpeningHours)
}

func TestResolve_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := NewResolver(srv.URL, nil).Resolve(context.Background(), "x", "y")
	assert.Equal(t, Default(), cfg)
}

func TestResolve_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{not json")
	}))
	defer srv.Close()

	cfg := NewResolver(srv.URL, nil).Resolve(context.Background(), "x", "y")
	assert.Equal(t, Default(), cfg)
}

func TestResolve_MissingConfigField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	}))
	defer srv.Close()

	cfg := NewResolver(srv.URL, nil).Resolve(context.Background(), "x", "y")
	assert.Equal(t, Default(), cfg)
}

func TestResolve_Unreachable(t *testing.T) {
	cfg := NewResolver("http://127.0.0.1:1", nil).Resolve(context.Background(), "x", "y")
	assert.Equal(t, Default(), cfg)
}

func TestApplyDefaults_GreetingNamesCompany(t *testing.T) {
	cfg := ApplyDefaults(AgentConfig{CompanyName: "Dach Schmidt"})
	assert.Equal(t, "Guten Tag, Dach Schmidt, wie kann ich Ihnen helfen?", cfg.Greeting)
	assert.Equal(t, IndustryGeneral, cfg.Industry)
}
