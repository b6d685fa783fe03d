package voice_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"influencer/internal/channels"
	"influencer/internal/collab/voice"
	"influencer/internal/retry"
	"influencer/internal/services"
)

func newClient(t *testing.T, url string) *voice.Client {
	t.Helper()
	c, err := voice.NewClient(voice.Config{APIKey: "secret", BaseURL: url + "/v1", Model: "eleven_multilingual_v2"},
		voice.WithRetry(retry.Policy{MaxAttempts: 3, Sleep: func(context.Context, time.Duration) error { return nil }}))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSynthesizeSendsVoiceSettings(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.URL.Path != "/v1/text-to-speech/voice-9" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "secret" {
			t.Errorf("missing api key header")
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		settings, _ := body["voice_settings"].(map[string]any)
		if body["text"] != "Hello there." || settings["stability"] != 0.5 {
			t.Errorf("unexpected body %v", body)
		}
		_, _ = w.Write([]byte("MP3DATA"))
	}))
	defer srv.Close()

	audio, err := newClient(t, srv.URL).Synthesize(context.Background(), " Hello there. ", channels.Voice{ID: "voice-9", Stability: 0.5})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "MP3DATA" || calls.Load() != 2 {
		t.Fatalf("audio=%q calls=%d", audio, calls.Load())
	}
}

func TestSynthesizeUnauthorizedIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	_, err := newClient(t, srv.URL).Synthesize(context.Background(), "x", channels.Voice{ID: "v"})
	if !errors.Is(err, services.ErrFatal) || services.IsTransient(err) {
		t.Fatalf("expected fatal, got %v", err)
	}
}

func TestSynthesizeValidation(t *testing.T) {
	c := newClient(t, "http://unused")
	if _, err := c.Synthesize(context.Background(), " ", channels.Voice{ID: "v"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := c.Synthesize(context.Background(), "x", channels.Voice{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if _, err := voice.NewClient(voice.Config{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for missing key, got %v", err)
	}
}
