package game

import (
	"time"

	"github.com/gorilla/websocket"
)

// NetworkConnection is the transport a Player reads and writes. Wrapping
// gorilla keeps the rest of the package mockable.
type NetworkConnection interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Close()
}

type wsConnection struct {
	socket *websocket.Conn
}

func NewWSConnection(conn *websocket.Conn) *wsConnection {
	return &wsConnection{socket: conn}
}

func (wc *wsConnection) Read() ([]byte, error) {
	_, p, err := wc.socket.ReadMessage()
	return p, err
}

func (wc *wsConnection) Write(data []byte) error {
	wc.socket.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return wc.socket.WriteMessage(websocket.TextMessage, data)
}

func (wc *wsConnection) Close() {
	wc.socket.SetWriteDeadline(time.Now().Add(time.Second))
	wc.socket.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	wc.socket.Close()
}
