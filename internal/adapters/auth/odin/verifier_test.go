package odin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vet-clinic/internal/platform/apperr"
)

func TestVerifier_AgainstFakeOdin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != verifyPath || r.Header.Get("X-Api-Key") != "key" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body verifyRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Token != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(verifyResponse{UserID: " u1 ", Email: "ana@clinic.cl"})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := NewVerifier(client)

	c, err := v.Verify(context.Background(), "good")
	if err != nil || c.UserID != "u1" || c.Email != "ana@clinic.cl" {
		t.Fatalf("unexpected claims %+v err=%v", c, err)
	}

	if _, err := v.Verify(context.Background(), "bad"); !errors.Is(err, ErrOdinUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestVerifier_NotConfigured(t *testing.T) {
	client, _ := NewClient(Config{})
	if _, err := NewVerifier(client).Verify(context.Background(), "x"); !errors.Is(err, ErrOdinNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
}

func TestVerifier_UpstreamDownIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "key"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewVerifier(client).Verify(context.Background(), "good")
	if !errors.Is(err, apperr.ErrUnavailable) || !errors.Is(err, ErrOdinUpstream) {
		t.Fatalf("expected unavailable upstream error, got %v", err)
	}
}
