package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/middleware"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/service"
	ws "github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams live integrity events of one exam session over
// WebSocket by relaying the session's Redis monitor channel.
type MonitorHandler struct {
	publisher *service.MonitorPublisher
	log       zerolog.Logger
	upgrader  websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(publisher *service.MonitorPublisher, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		publisher: publisher,
		log:       log.With().Str("component", "monitor_handler").Logger(),
		upgrader:  buildUpgrader(allowedOrigins),
	}
}

// MonitorStream godoc
// WS /ws/v1/exams/:exam_id/monitor
// Upgrades to WebSocket and pushes each violation event of the session as
// it is published. The client may send ping frames; anything else closes
// the connection.
func (h *MonitorHandler) MonitorStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("user_id", claims.UserID).
		Str("exam_id", examID.String()).
		Logger()
	wsLog.Info().Msg("Monitor connected")

	ctx := c.Request.Context()
	sub := h.publisher.Subscribe(ctx, examID)
	defer sub.Close()

	h.serve(ctx, conn, sub.Channel(), wsLog)
}

// serve owns every write to the connection. The websocket package permits
// at most one concurrent writer per conn, so the reader goroutine never
// writes itself: it forwards ping requests over a channel and the relay
// loop answers them between event frames.
func (h *MonitorHandler) serve(ctx context.Context, conn *websocket.Conn, events <-chan *redis.Message, wsLog zerolog.Logger) {
	done := make(chan struct{})
	pings := make(chan struct{}, 1)

	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Monitor disconnected")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				// Best effort: a ping arriving while one is already
				// pending collapses into it.
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-pings:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				wsLog.Debug().Err(err).Msg("Pong write failed, closing")
				return
			}
		case msg, ok := <-events:
			if !ok {
				return
			}
			if err := ws.WriteTyped(conn, ws.ViolationMessage{
				Event:   ws.EventViolation,
				Payload: msg.Payload,
			}); err != nil {
				wsLog.Debug().Err(err).Msg("Relay write failed, closing")
				return
			}
		}
	}
}
