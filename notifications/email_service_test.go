package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewBrevoServiceDisabledWithoutConfig(t *testing.T) {
	if s := NewBrevoService("", "ops@example.com", "Ops", zerolog.Nop()); s != nil {
		t.Fatalf("expected nil service without api key, got %+v", s)
	}
	var s *BrevoService
	if err := s.SendEmail("Owner", "owner@example.com", "subject", "body"); err != nil {
		t.Errorf("nil service SendEmail: %v", err)
	}
}

func TestSendEmailPostsBrevoPayload(t *testing.T) {
	var got brevoPayload
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewBrevoService("key-123", "payouts@example.com", "Payouts", zerolog.Nop())
	s.URL = srv.URL

	if err := s.SendEmail("", "owner@gym.example.com", "Withdrawal Processed", "<p>done</p>"); err != nil {
		t.Fatalf("SendEmail: %v", err)
	}
	if apiKey != "key-123" {
		t.Errorf("api-key header: got %q", apiKey)
	}
	if got.Subject != "Withdrawal Processed" || len(got.To) != 1 || got.To[0]["name"] != "owner" {
		t.Errorf("payload: got %+v", got)
	}
	if got.Sender["email"] != "payouts@example.com" {
		t.Errorf("sender: got %+v", got.Sender)
	}
}

func TestSendEmailReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Key not found"}`))
	}))
	defer srv.Close()

	s := NewBrevoService("bad", "payouts@example.com", "Payouts", zerolog.Nop())
	s.URL = srv.URL
	if err := s.SendEmail("Owner", "owner@gym.example.com", "subject", "body"); err == nil {
		t.Fatal("expected error for non-201 response")
	}
	if err := s.SendEmail("Owner", "not-an-email", "subject", "body"); err == nil {
		t.Fatal("expected error for invalid recipient")
	}
}
