package handler

import (
	"context"
	"sync"
	"time"

	"field-data-be/internal/pkg/logger"
	"field-data-be/internal/service"
	internalWS "field-data-be/internal/websocket"
	"field-data-be/pkg/capture/relay"
	pktNats "field-data-be/pkg/nats"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	mediaReadLimit = 8 << 20
	pushTimeout    = 2 * time.Second
)

// StreamHandler owns the websocket endpoints: the event feed, the media relay
// of a capture session and the browser position feed.
type StreamHandler struct {
	hub      *internalWS.Hub
	devices  *relay.Devices
	captures service.ICaptureService
	location service.ILocationService
	logger   logger.ILogger
}

func NewStreamHandler(
	hub *internalWS.Hub,
	devices *relay.Devices,
	captures service.ICaptureService,
	location service.ILocationService,
	log logger.ILogger,
) *StreamHandler {
	return &StreamHandler{
		hub:      hub,
		devices:  devices,
		captures: captures,
		location: location,
		logger:   log,
	}
}

func (h *StreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeFeed)
	router.Get("/capture/v1/:id/media", h.ServeMedia)
	router.Get("/location/v1/feed", h.ServePositions)
}

func (h *StreamHandler) ServeFeed(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("StreamHandler", "Feed client connected", map[string]interface{}{"remote": conn.RemoteAddr().String()})
		internalWS.ServeWs(h.hub, conn)
		h.logger.Info("StreamHandler", "Feed client disconnected", nil)
	})(c)
}

// lockedConn serialises writes; the relay writes from several goroutines.
type lockedConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (l *lockedConn) WriteJSON(v interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.WriteJSON(v)
}

// ServeMedia attaches the browser that owns the camera and microphone of a
// capture session. The session must exist before the upgrade.
func (h *StreamHandler) ServeMedia(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.captures.Show(c.UserContext(), id); err != nil {
		return err
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		if err := h.devices.Attach(id, &lockedConn{conn: conn}); err != nil {
			h.logger.Warn("StreamHandler", "Media relay refused", map[string]interface{}{
				"session_id": id,
				"error":      err.Error(),
			})
			conn.Close()
			return
		}
		defer h.devices.Detach(id)

		conn.SetReadLimit(mediaReadLimit)
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Warn("StreamHandler", "Media relay closed", map[string]interface{}{
						"session_id": id,
						"error":      err.Error(),
					})
				}
				return
			}
			if err := h.devices.Handle(id, data, mt == websocket.BinaryMessage); err != nil {
				h.logger.Warn("StreamHandler", "Dropped media message", map[string]interface{}{
					"session_id": id,
					"error":      err.Error(),
				})
			}
		}
	})(c)
}

// ServePositions accepts position readings from the browser, one JSON
// document per message, in any shape ParsePosition understands.
func (h *StreamHandler) ServePositions(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		feed := h.location.Feed()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
			err = feed.Push(ctx, pktNats.ParsePosition(data))
			cancel()
			if err != nil {
				h.logger.Warn("StreamHandler", "Position feed unavailable", map[string]interface{}{"error": err.Error()})
				return
			}
		}
	})(c)
}
