// Package telemetry pushes render frames to the external visualization
// server over a websocket. Strictly fire-and-forget: frames queue into a
// bounded channel and are dropped under backpressure, so a slow or absent
// viewer can never stall a simulation step.
package telemetry

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/gridworld/internal/env"
)

const (
	queueDepth     = 64
	writeTimeout   = 5 * time.Second
	reconnectDelay = 3 * time.Second
)

// WSSink streams frames to a websocket endpoint from a background
// goroutine, reconnecting on failure.
type WSSink struct {
	url    string
	frames chan env.Frame
	done   chan struct{}
}

// NewWS creates the sink and starts its writer goroutine.
func NewWS(url string) *WSSink {
	s := &WSSink{
		url:    url,
		frames: make(chan env.Frame, queueDepth),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// SendReset implements env.TelemetrySink.
func (s *WSSink) SendReset(f env.Frame) error {
	s.enqueue(f)
	return nil
}

// SendStep implements env.TelemetrySink.
func (s *WSSink) SendStep(f env.Frame) error {
	s.enqueue(f)
	return nil
}

// enqueue never blocks; under backpressure the frame is dropped.
func (s *WSSink) enqueue(f env.Frame) {
	select {
	case s.frames <- f:
	default:
		slog.Debug("telemetry queue full, dropping frame")
	}
}

// Close stops the writer goroutine. Queued frames may be dropped.
func (s *WSSink) Close() {
	close(s.done)
}

func (s *WSSink) run() {
	for {
		conn := s.connect()
		if conn == nil {
			return // closed while reconnecting
		}
		s.writeLoop(conn)
		conn.Close()
		select {
		case <-s.done:
			return
		default:
		}
	}
}

// connect dials until it succeeds or the sink is closed.
func (s *WSSink) connect() *websocket.Conn {
	for {
		conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
		if err == nil {
			slog.Info("telemetry connected", "url", s.url)
			return conn
		}
		slog.Debug("telemetry dial failed", "url", s.url, "error", err)
		select {
		case <-s.done:
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

// writeLoop drains the frame queue until a write fails or the sink closes.
func (s *WSSink) writeLoop(conn *websocket.Conn) {
	for {
		select {
		case <-s.done:
			return
		case f := <-s.frames:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(f); err != nil {
				slog.Debug("telemetry write failed, reconnecting", "error", err)
				return
			}
		}
	}
}

// Multi fans frames out to several sinks.
type Multi []env.TelemetrySink

// SendReset implements env.TelemetrySink.
func (m Multi) SendReset(f env.Frame) error {
	for _, s := range m {
		s.SendReset(f)
	}
	return nil
}

// SendStep implements env.TelemetrySink.
func (m Multi) SendStep(f env.Frame) error {
	for _, s := range m {
		s.SendStep(f)
	}
	return nil
}

// Discard is a telemetry sink that drops everything. Useful in tests.
type Discard struct{}

// SendReset implements env.TelemetrySink.
func (Discard) SendReset(env.Frame) error { return nil }

// SendStep implements env.TelemetrySink.
func (Discard) SendStep(env.Frame) error { return nil }
