package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/webclinic017/sagetrader-api/internal/auth"
	"github.com/webclinic017/sagetrader-api/internal/events"
)

const (
	eventsBuffer     = 32
	eventsWriteWait  = 5 * time.Second
	eventsPingPeriod = 30 * time.Second
)

type EventsHandler struct {
	Hub            *events.Hub
	OriginPatterns []string
	Logger         *zap.Logger
}

func (h *EventsHandler) Register(g *gin.RouterGroup) {
	g.GET("/events", h.stream)
}

// @Summary Journal change feed
// @Description Websocket of {kind, action, uid, at} messages for the caller's rows. Browsers may pass ?token=.
// @Tags events
// @Security BearerAuth
// @Router /api/v1/mspt/events [get]
func (h *EventsHandler) stream(c *gin.Context) {
	user := auth.CurrentUser(c)
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: h.OriginPatterns,
	})
	if err != nil {
		h.logger().Debug("events accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	sub, unsubscribe := h.Hub.Subscribe(user.UID, eventsBuffer)
	defer unsubscribe()

	// Client frames are ignored; CloseRead cancels ctx when the peer goes away.
	ctx := conn.CloseRead(c.Request.Context())
	ping := time.NewTicker(eventsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := writeEvent(ctx, conn, ev); err != nil {
				h.closeErr(conn, err)
				return
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, eventsWriteWait)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				h.closeErr(conn, err)
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev events.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, eventsWriteWait)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, payload)
}

func (h *EventsHandler) closeErr(conn *websocket.Conn, err error) {
	if errors.Is(err, context.Canceled) || websocket.CloseStatus(err) != -1 {
		return
	}
	h.logger().Debug("events stream closed", zap.Error(err))
	_ = conn.Close(websocket.StatusInternalError, "write failed")
}

func (h *EventsHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
