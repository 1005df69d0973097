package main

import (
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rashdan-hamzah/meow-mayhem/game"
)

func CreateServer(allowedOrigins []string, lobby *game.Lobby) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})

	r.GET("/", func(ctx *gin.Context) { ctx.String(200, "Meow Mayhem server is running") })
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })
	// Keep-alive endpoint for external uptime pingers.
	r.GET("/ping", func(ctx *gin.Context) { ctx.String(200, "pong") })

	corsConfig := cors.Config{
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}
	if len(allowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	r.Use(cors.New(corsConfig))

	handler := game.NewHandler(lobby)
	r.GET("/ws", handler.ServeWS)

	return r
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	port, exists := os.LookupEnv("PORT")
	if !exists {
		port = "3000"
	}

	var allowedOrigins []string
	if origins, exists := os.LookupEnv("ALLOWED_ORIGINS"); exists {
		allowedOrigins = strings.Split(origins, ",")
	}

	wg := sync.WaitGroup{}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	lobby := game.NewLobby(rng, game.NewTickerFactory(), &wg)

	lobbyStarted := make(chan struct{})
	go lobby.Run(lobbyStarted)
	<-lobbyStarted

	r := CreateServer(allowedOrigins, lobby)
	go func() {
		if err := r.Run(":" + port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", port).Msg("server started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, os.Interrupt)
	<-sigCh
	log.Info().Msg("shutdown requested, waiting for rooms to finish")

	wg.Wait()
	log.Info().Msg("shutting down now")
}
