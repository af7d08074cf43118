package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/peercall/internal/config"
	"github.com/immxrtalbeast/peercall/internal/domain"
	"github.com/immxrtalbeast/peercall/internal/service"
	"github.com/immxrtalbeast/peercall/lib/logger/sl"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

type SignalingController struct {
	signaling      service.SignalingInteractor
	log            *slog.Logger
	upgrader       websocket.Upgrader
	maxMessageSize int64
}

func NewSignalingController(signaling service.SignalingInteractor, log *slog.Logger, cfg config.WebSocketConfig) *SignalingController {
	if log == nil {
		log = slog.Default()
	}
	return &SignalingController{
		signaling: signaling,
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		maxMessageSize: cfg.MaxMessageSize,
	}
}

// Signal upgrades the connection and drives it until it dies. Whatever way
// the read loop exits, the user is disconnected exactly once.
func (c *SignalingController) Signal(ctx *gin.Context) {
	name := ctx.Query("name")
	if name == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Error("failed to upgrade connection", sl.Err(err))
		return
	}

	user, err := c.signaling.Connect(name)
	if err != nil {
		conn.WriteJSON(gin.H{"error": err.Error()})
		conn.Close()
		return
	}

	go c.writePump(conn, user)

	conn.SetReadLimit(c.maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.signaling.Disconnect(user.ID)
			conn.Close()
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := domain.DecodeSignalMessage(data)
		if err != nil {
			// Malformed input never kills the connection.
			c.log.Info("dropping undecodable frame",
				slog.String("user_id", user.ID),
				sl.Err(err),
			)
			continue
		}

		c.signaling.HandleSignal(user.ID, msg)
	}
}

// writePump forwards queued events to the socket and keeps the connection
// alive with pings. The events channel is closed by the registry on
// disconnect, which ends the pump.
func (c *SignalingController) writePump(conn *websocket.Conn, user *domain.User) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case event, ok := <-user.Events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := domain.EncodeSignalMessage(event)
			if err != nil {
				c.log.Error("failed to encode event", sl.Err(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.signaling.Disconnect(user.ID)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.signaling.Disconnect(user.ID)
				return
			}
		}
	}
}
