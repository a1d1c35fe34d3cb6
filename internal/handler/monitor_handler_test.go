package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/websocket"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// monitorPair upgrades one client connection against h.serve fed by the
// returned events channel.
func monitorPair(t *testing.T, h *MonitorHandler) (*websocket.Conn, chan *redis.Message, func()) {
	t.Helper()
	events := make(chan *redis.Message)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		h.serve(r.Context(), conn, events, zerolog.Nop())
	}))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, events, func() {
		conn.Close()
		srv.Close()
	}
}

// Pings race against relayed events; every frame the client reads back must
// still decode cleanly, which only holds when one goroutine owns the writes.
func TestMonitorServeInterleavesPingsAndEvents(t *testing.T) {
	h := NewMonitorHandler(nil, zerolog.Nop(), nil)
	conn, events, teardown := monitorPair(t, h)
	defer teardown()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case events <- &redis.Message{Payload: `{"kind":"tab_switch","count":1}`}:
			case <-stop:
				return
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	violations := 0
	for i := 0; i < 10; i++ {
		if err := conn.WriteJSON(ws.RequestEnvelope{Action: ws.ActionPing}); err != nil {
			t.Fatalf("ping %d: %v", i, err)
		}
		for {
			var frame struct {
				Event   ws.Event `json:"event"`
				Payload string   `json:"payload"`
			}
			if err := conn.ReadJSON(&frame); err != nil {
				t.Fatalf("read after ping %d: %v", i, err)
			}
			if frame.Event == ws.EventPong {
				break
			}
			if frame.Event != ws.EventViolation {
				t.Fatalf("unexpected event %q", frame.Event)
			}
			if frame.Payload == "" {
				t.Fatal("violation frame lost its payload")
			}
			violations++
		}
	}

	// The pump never stops, so at least one event must relay through.
	for violations == 0 {
		var frame struct {
			Event ws.Event `json:"event"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("awaiting relay: %v", err)
		}
		if frame.Event == ws.EventViolation {
			violations++
		}
	}
}

func TestMonitorServeStopsWhenEventsClose(t *testing.T) {
	h := NewMonitorHandler(nil, zerolog.Nop(), nil)
	conn, events, teardown := monitorPair(t, h)
	defer teardown()

	close(events)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame struct {
		Event ws.Event `json:"event"`
	}
	if err := conn.ReadJSON(&frame); err == nil {
		t.Fatalf("expected closed connection, read %+v", frame)
	}
}

func TestBuildUpgraderOriginCheck(t *testing.T) {
	up := buildUpgrader([]string{"https://app.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://APP.example.com")
	if !up.CheckOrigin(req) {
		t.Error("allowed origin rejected (comparison is case-insensitive)")
	}

	req.Header.Set("Origin", "https://evil.example.com")
	if up.CheckOrigin(req) {
		t.Error("unlisted origin accepted")
	}

	open := buildUpgrader(nil)
	if !open.CheckOrigin(req) {
		t.Error("empty allowlist must permit all origins")
	}
}
