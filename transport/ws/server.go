package ws

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ServerConfig configures the listener.
type ServerConfig struct {
	Addr            string
	MaxConn         int
	PendingWriteNum int
	MaxMsgSize      uint32
	Timeout         time.Duration
}

// Handler is invoked once per accepted connection, on its own
// goroutine; it owns the connection until it returns.
type Handler func(Conn)

// Server accepts WebSocket upgrades and hands each connection to a
// Handler, mirroring the teacher's WsServer/WsHandler split.
type Server struct {
	conf    ServerConfig
	handler Handler

	ln  net.Listener
	mu  sync.Mutex
	wg  sync.WaitGroup
	set map[*websocket.Conn]struct{}
}

// NewServer constructs a Server; call Start to begin listening.
func NewServer(conf ServerConfig, handler Handler) *Server {
	return &Server{
		conf:    conf,
		handler: handler,
		set:     make(map[*websocket.Conn]struct{}),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	if s.conf.MaxConn > 0 && len(s.set) >= s.conf.MaxConn {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.set[conn] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.set, conn)
			s.mu.Unlock()
		}()

		wrapped := NewConn(conn, Config{MaxMsgSize: s.conf.MaxMsgSize, PendingWriteNum: s.conf.PendingWriteNum})
		s.handler(wrapped)
	}()
}

// Start binds the listener and begins serving in the background. It
// returns once the listener is bound, or with an error on bind
// failure.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.conf.Addr)
	if err != nil {
		return err
	}
	s.ln = ln

	httpServer := &http.Server{
		Addr:         s.conf.Addr,
		Handler:      s,
		ReadTimeout:  s.conf.Timeout,
		WriteTimeout: s.conf.Timeout,
	}
	go httpServer.Serve(ln)
	return nil
}

// Stop closes the listener and every live connection, then waits for
// their handler goroutines to exit.
func (s *Server) Stop() {
	if s.ln != nil {
		s.ln.Close()
	}

	s.mu.Lock()
	for conn := range s.set {
		conn.Close()
	}
	s.set = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()

	s.wg.Wait()
}
