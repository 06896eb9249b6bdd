package server

import (
	"io"
	"time"

	"robots/internal/protocol"

	"github.com/gorilla/websocket"
)

// websocketConnection carries the server broadcast to a spectator. Anything
// the spectator sends is discarded.
type websocketConnection struct {
	socket *websocket.Conn
}

func NewWebsocketConnection(conn *websocket.Conn) *websocketConnection {
	return &websocketConnection{conn}
}

func (wc *websocketConnection) RemoteAddr() string {
	return wc.socket.RemoteAddr().String()
}

func (wc *websocketConnection) Read() (protocol.ClientMessage, error) {
	for {
		_, _, err := wc.socket.ReadMessage()
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
	}
}

func (wc *websocketConnection) Write(data []byte) error {
	wc.socket.SetWriteDeadline(time.Now().Add(writeTimeout))
	return wc.socket.WriteMessage(websocket.BinaryMessage, data)
}

func (wc *websocketConnection) Close(errCode string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, errCode)
	wc.socket.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	wc.socket.Close()
}
