package rako

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/rako-integration/internal/pkg/model"
)

// pollInterval bounds how long a blocked read can outlive a cancelled
// context. Next re-checks ctx each time the read deadline fires.
const pollInterval = 250 * time.Millisecond

const maxDatagram = 256

// Listener is a scoped handle on the bridge's UDP push port. It decodes
// datagrams into status messages and keeps the scene/level caches in sync
// with observed traffic. Not safe for concurrent Next calls; the bridge
// runs exactly one listener goroutine.
type Listener struct {
	conn   *net.UDPConn
	levels *LevelCache
	scenes *SceneCache
	logger *zap.Logger
	buf    []byte
}

func newListener(conn *net.UDPConn, levels *LevelCache, scenes *SceneCache, logger *zap.Logger) *Listener {
	return &Listener{
		conn:   conn,
		levels: levels,
		scenes: scenes,
		logger: logger,
		buf:    make([]byte, maxDatagram),
	}
}

// Addr returns the bound local address.
func (l *Listener) Addr() net.Addr { return l.conn.LocalAddr() }

// Next blocks until the bridge pushes a status message or ctx is
// cancelled. Malformed and unrecognised datagrams are skipped, never
// surfaced as errors.
func (l *Listener) Next(ctx context.Context) (model.StatusMessage, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := l.conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			return nil, err
		}
		n, _, err := l.conn.ReadFromUDP(l.buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}

		msg, err := decodeStatus(l.buf[:n])
		if err != nil {
			l.logger.Debug("skipping malformed datagram", zap.Error(err))
			continue
		}
		if msg == nil {
			continue
		}
		l.record(msg)
		return msg, nil
	}
}

// record keeps the caches consistent with what the bridge reports, so
// entity initial values and scene fan-out reflect reality.
func (l *Listener) record(msg model.StatusMessage) {
	switch m := msg.(type) {
	case model.SceneStatus:
		l.scenes.Set(m.RoomID, m.Scene)
	case model.ChannelStatus:
		scene := l.scenes.Get(m.RoomID, 0)
		l.levels.SetChannelLevel(m.RoomID, m.ChannelID, scene, m.Brightness)
	}
}

// Close releases the UDP socket. Safe to call after a failed Next.
func (l *Listener) Close() error {
	return l.conn.Close()
}
