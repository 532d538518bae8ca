package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/trafficwatch/internal/domain"
)

func TestNotifier_Send(t *testing.T) {
	var gotPath, gotChat, gotText, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		_ = r.ParseForm()
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	n := NewNotifier(&Config{BotToken: "123:abc", ChatID: "-100", APIURL: srv.URL + "/"})
	if err := n.Send(context.Background(), "usage 80% & rising"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotPath != "/bot123:abc/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotType != "application/x-www-form-urlencoded" {
		t.Errorf("content type = %q", gotType)
	}
	if gotChat != "-100" || gotText != "usage 80% & rising" {
		t.Errorf("chat=%q text=%q", gotChat, gotText)
	}
}

func TestNotifier_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	n := NewNotifier(&Config{BotToken: "t", ChatID: "1", APIURL: srv.URL})
	err := n.Send(context.Background(), "hi")
	if !errors.Is(err, domain.ErrNotifierUnavailable) {
		t.Fatalf("expected ErrNotifierUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("error should carry API description: %v", err)
	}
}

func TestNotifier_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	n := NewNotifier(&Config{BotToken: "secret-token", ChatID: "1", APIURL: srv.URL, Timeout: 50 * time.Millisecond})

	start := time.Now()
	err := n.Send(context.Background(), "hi")
	if !errors.Is(err, domain.ErrNotifierUnavailable) {
		t.Fatalf("expected ErrNotifierUnavailable, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("send was not bounded by the timeout")
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Errorf("error leaks bot token: %v", err)
	}
}

func TestNotifier_Disabled(t *testing.T) {
	n := NewNotifier(&Config{ChatID: "1"})
	if n.Enabled() {
		t.Fatal("expected notifier to be disabled without a token")
	}
	if err := n.Send(context.Background(), "hi"); err != nil {
		t.Fatalf("disabled notifier must not fail: %v", err)
	}
}
