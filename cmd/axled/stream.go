package main

import (
	"encoding/json"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/axlesim/axle/internal/channel"
	"github.com/axlesim/axle/pkg/streaming"
)

// streamServer broadcasts live telemetry frames to TCP consumers, one JSON
// frame per line. Consumers can connect and disconnect at any time; a
// consumer that stops reading is dropped rather than allowed to stall the
// broadcast.
type streamServer struct {
	ln   net.Listener
	feed channel.Receiver[streaming.Frame]
	log  *slog.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

func newStreamServer(addr string, feed channel.Receiver[streaming.Frame], log *slog.Logger) (*streamServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &streamServer{
		ln:    ln,
		feed:  feed,
		log:   log,
		conns: make(map[net.Conn]struct{}),
	}
	go s.acceptLoop()
	go s.broadcastLoop()
	return s, nil
}

func (s *streamServer) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.log.Debug("Live feed consumer connected", "remote", conn.RemoteAddr().String())
	}
}

// broadcastLoop fans frames out to every connected consumer. It exits when
// the feed channel closes, taking the remaining connections with it.
func (s *streamServer) broadcastLoop() {
	for f := range s.feed.Receive() {
		data, err := json.Marshal(f)
		if err != nil {
			s.log.Error("Failed to encode feed frame", "error", err)
			continue
		}
		data = append(data, '\n')

		s.mu.Lock()
		for conn := range s.conns {
			conn.SetWriteDeadline(time.Now().Add(time.Second))
			if _, err := conn.Write(data); err != nil {
				s.log.Debug("Dropping live feed consumer", "remote", conn.RemoteAddr().String(), "error", err)
				conn.Close()
				delete(s.conns, conn)
			}
		}
		s.mu.Unlock()
	}
	s.closeConns()
}

func (s *streamServer) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
		delete(s.conns, conn)
	}
}

// Close stops accepting consumers and disconnects the current ones.
func (s *streamServer) Close() {
	s.ln.Close()
	s.closeConns()
}
