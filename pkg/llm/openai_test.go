package llm

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Alijeyrad/playcare_backend/config"
)

func TestDisabled(t *testing.T) {
	for name, cfg := range map[string]config.AIConfig{
		"off":    {Enabled: false, APIKey: "k"},
		"no key": {Enabled: true},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewFromCentral(cfg).Complete(t.Context(), "", "hi")
			if !errors.Is(err, ErrDisabled) {
				t.Fatalf("err = %v, want ErrDisabled", err)
			}
		})
	}
}

func TestComplete(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Steady progress."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewFromCentral(config.AIConfig{Enabled: true, APIKey: "k", BaseURL: srv.URL + "/", Model: "test-model"})
	out, err := c.Complete(t.Context(), "be brief", "summarize")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "Steady progress." {
		t.Errorf("out = %q", out)
	}
	if got.Model != "test-model" {
		t.Errorf("model = %q", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "summarize" {
		t.Errorf("messages = %+v", got.Messages)
	}
}
