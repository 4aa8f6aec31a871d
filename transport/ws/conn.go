// Package ws implements the WebSocket transport: spec.md §6 leaves
// the choice of full-duplex transport open, and this is the one
// concrete implementation the server uses, grounded on the teacher's
// network/ws_server.go and network/ws_conn.go.
package ws

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrConnClosed is returned by Write once the connection has been
// closed.
var ErrConnClosed = errors.New("ws: connection closed")

// ErrMessageTooLong is returned by Write when the combined message
// exceeds MaxMsgSize.
var ErrMessageTooLong = errors.New("ws: message too long")

// Conn is the transport-agnostic interface the room and reconnect
// machinery send framed bytes through. Conn is message-oriented to
// match the underlying WebSocket framing: each Write carries one whole
// wire envelope, without wire.WriteFrame's length prefix.
type Conn interface {
	Read() ([]byte, error)
	Write(data []byte) error
	// SetReadDeadline bounds the next Read call: if no message arrives
	// before d elapses, Read returns an error instead of blocking
	// forever. Callers re-arm it before every Read to implement an
	// idle timeout.
	SetReadDeadline(d time.Duration) error
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
	Close()
}

// Config bounds a single connection's resource usage.
type Config struct {
	MaxMsgSize      uint32
	PendingWriteNum int
}

// WsConn wraps a gorilla/websocket.Conn with a buffered async writer
// goroutine, the same shape as the teacher's WsConn.
type WsConn struct {
	mu        sync.Mutex
	conf      Config
	conn      *websocket.Conn
	writeChan chan []byte
	closed    bool
}

var _ Conn = (*WsConn)(nil)

// NewConn wraps an already-upgraded websocket connection.
func NewConn(conn *websocket.Conn, conf Config) *WsConn {
	if conf.PendingWriteNum <= 0 {
		conf.PendingWriteNum = 64
	}
	w := &WsConn{
		conf:      conf,
		conn:      conn,
		writeChan: make(chan []byte, conf.PendingWriteNum),
	}

	go w.writeLoop()
	return w
}

func (w *WsConn) writeLoop() {
	defer w.conn.Close()

	for data := range w.writeChan {
		if data == nil {
			return
		}
		if err := w.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			return
		}
	}
}

// Read blocks for the next binary message, or until a deadline set by
// SetReadDeadline elapses.
func (w *WsConn) Read() ([]byte, error) {
	_, data, err := w.conn.ReadMessage()
	return data, err
}

// SetReadDeadline arms the underlying socket's read deadline d from
// now; a zero d clears it.
func (w *WsConn) SetReadDeadline(d time.Duration) error {
	if d <= 0 {
		return w.conn.SetReadDeadline(time.Time{})
	}
	return w.conn.SetReadDeadline(time.Now().Add(d))
}

// Write enqueues data for the async writer goroutine.
func (w *WsConn) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrConnClosed
	}
	if uint32(len(data)) > w.conf.MaxMsgSize {
		return ErrMessageTooLong
	}

	select {
	case w.writeChan <- data:
		return nil
	default:
		w.doClose()
		return ErrConnClosed
	}
}

// Close gracefully signals the writer goroutine to stop after
// draining, without discarding queued writes.
func (w *WsConn) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.writeChan <- nil:
	default:
		w.doClose()
		return
	}
	w.closed = true
}

func (w *WsConn) doClose() {
	if w.closed {
		return
	}
	w.closed = true
	close(w.writeChan)
}

func (w *WsConn) LocalAddr() net.Addr  { return w.conn.LocalAddr() }
func (w *WsConn) RemoteAddr() net.Addr { return w.conn.RemoteAddr() }
