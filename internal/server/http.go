package server

import (
	"context"
	"net/http"
	"slices"
	"time"

	"robots/internal/shared/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// CreateServer builds the HTTP surface. Requests carrying an Origin outside
// allowedOrigins are refused.
func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: allowedOrigins,
			AllowMethods: []string{"GET", "OPTIONS"},
			AllowHeaders: []string{
				"Content-Type",
				"Upgrade",
				"Connection",
				"Sec-WebSocket-Key",
				"Sec-WebSocket-Version",
				"Sec-WebSocket-Extensions",
				"Sec-WebSocket-Protocol",
			},
		}))
	}

	return r
}

type StatusHandler struct {
	scheduler *Scheduler
	listener  *Listener
}

func NewStatusHandler(scheduler *Scheduler, listener *Listener) *StatusHandler {
	return &StatusHandler{scheduler: scheduler, listener: listener}
}

func (h *StatusHandler) Register(r *gin.Engine) {
	r.GET("/status", h.StatusHandler)
	r.GET("/spectate", h.SpectateHandler)
}

func (h *StatusHandler) StatusHandler(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	st, err := h.scheduler.Status(reqCtx)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler-unavailable"})
		return
	}
	ctx.JSON(http.StatusOK, st)
}

// SpectateHandler streams the binary server messages over a websocket, one
// broadcast per frame.
func (h *StatusHandler) SpectateHandler(ctx *gin.Context) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		logger.Warningf("spectator upgrade from %s: %v", ctx.ClientIP(), err)
		return
	}

	h.listener.Attach(ctx.Request.Context(), NewWebsocketConnection(conn))
}
