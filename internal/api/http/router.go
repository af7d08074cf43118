package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/peercall/internal/config"
	"github.com/pion/webrtc/v3"
)

func SetupRouter(signalingController *SignalingController, userController *UserController, cfg *config.Config) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{
			"message":            "WebRTC Signaling Server",
			"websocket_endpoint": "/ws",
			"instructions":       "Connect to WebSocket endpoint to start signaling",
		})
	})

	if signalingController != nil {
		router.GET("/ws", signalingController.Signal)
	}

	api := router.Group("/api")

	if userController != nil {
		api.GET("/users", userController.ListUsers)
	}

	api.GET("/webrtc-config", func(ctx *gin.Context) {
		servers := make([]webrtc.ICEServer, 0, len(cfg.WebRTC.STUNServers))
		for _, url := range cfg.WebRTC.STUNServers {
			servers = append(servers, webrtc.ICEServer{URLs: []string{url}})
		}
		ctx.JSON(200, gin.H{"ice_servers": servers})
	})

	return router
}
