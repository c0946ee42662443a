package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/models"
)

func TestComplete_Success(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s, want /v1/chat/completions", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"score": 80}`}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(nil, config.LLMConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: srv.URL + "/v1",
	})

	got, err := c.Complete(context.Background(), "rate this page", 512)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"score": 80}` {
		t.Errorf("content = %q", got)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if gotReq.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", gotReq.Temperature)
	}
	if gotReq.MaxTokens != 512 {
		t.Errorf("max_tokens = %d, want 512", gotReq.MaxTokens)
	}
	if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format = %+v, want json_object", gotReq.ResponseFormat)
	}
}

func TestComplete_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode string
	}{
		{"unauthorized", http.StatusUnauthorized, models.ErrCodeLLMAuthFailure},
		{"forbidden", http.StatusForbidden, models.ErrCodeLLMAuthFailure},
		{"rate limited", http.StatusTooManyRequests, models.ErrCodeLLMRateLimited},
		{"server error", http.StatusInternalServerError, models.ErrCodeLLMFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error": {"message": "nope"}}`))
			}))
			defer srv.Close()

			c := NewClient(nil, config.LLMConfig{APIKey: "k", BaseURL: srv.URL})

			_, err := c.Complete(context.Background(), "p", 10)
			var assessErr *models.AssessError
			if !errors.As(err, &assessErr) {
				t.Fatalf("err = %v, want *models.AssessError", err)
			}
			if assessErr.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", assessErr.Code, tt.wantCode)
			}
			if !strings.Contains(assessErr.Message, "nope") {
				t.Errorf("message = %q, want provider message surfaced", assessErr.Message)
			}
		})
	}
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	c := NewClient(nil, config.LLMConfig{APIKey: "k", BaseURL: srv.URL})

	_, err := c.Complete(context.Background(), "p", 10)
	var assessErr *models.AssessError
	if !errors.As(err, &assessErr) || assessErr.Code != models.ErrCodeLLMFailure {
		t.Errorf("err = %v, want LLM_FAILURE", err)
	}
}

func TestComplete_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(nil, config.LLMConfig{APIKey: "k", BaseURL: srv.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Complete(ctx, "p", 10)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled in chain", err)
	}
}
