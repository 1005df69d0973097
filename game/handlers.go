package game

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	lobby *Lobby
}

func NewHandler(lobby *Lobby) *Handler {
	return &Handler{lobby: lobby}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS middleware in front of this route.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection, mints a connection-scoped player id and
// starts the pumps. The id is the client's identity for its whole session;
// there is no account behind it.
func (h *Handler) ServeWS(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	player := NewPlayer(uuid.NewString(), NewWSConnection(conn), h.lobby)
	log.Info().Str("player", player.id).Str("ip", ctx.ClientIP()).Msg("player connected")

	go player.WritePump()
	go player.ReadPump()
}
