package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordingHandler struct {
	events []Event
	err    error
}

func (r *recordingHandler) HandleEvent(_ context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return r.err
}

func TestWebhookHandlerDispatchesTextUpdate(t *testing.T) {
	h := &recordingHandler{}
	srv := httptest.NewServer(WebhookHandler(h))
	defer srv.Close()

	body := `{"update_id":1,"message":{"message_id":10,"from":{"id":42},"chat":{"id":42},"text":"/menu"}}`
	resp, err := http.Post(srv.URL, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(h.events) != 1 {
		t.Fatalf("events = %d, want 1", len(h.events))
	}
	ev := h.events[0]
	if ev.Kind != EventText || ev.UserID != "42" || ev.Text != "/menu" {
		t.Errorf("event = %+v", ev)
	}
}

func TestWebhookHandlerToleratesGarbage(t *testing.T) {
	h := &recordingHandler{}
	srv := httptest.NewServer(WebhookHandler(h))
	defer srv.Close()

	// Redelivery would not help, so garbage is still answered 200.
	resp, err := http.Post(srv.URL, "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if len(h.events) != 0 {
		t.Errorf("garbage produced events: %+v", h.events)
	}
}

func TestWebhookHandlerRejectsGet(t *testing.T) {
	srv := httptest.NewServer(WebhookHandler(&recordingHandler{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}
