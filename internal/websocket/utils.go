package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeTimeout bounds one frame write. Monitor frames are tiny; a
	// client that cannot drain one in this window is gone.
	writeTimeout = 5 * time.Second
	// readTimeout covers several missed client ping cycles before the
	// reader gives up on the connection.
	readTimeout = 2 * time.Minute
)

// WriteTyped sends one typed payload as a JSON frame. Callers must
// serialize writes themselves; the connection allows a single writer.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse frame.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// ReadJSON decodes the next frame into v, renewing the read deadline.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	return conn.ReadJSON(v)
}
