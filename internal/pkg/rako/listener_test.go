package rako

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/anicoll/rako-integration/internal/pkg/model"
)

func newTestListener(t *testing.T) (*Listener, *net.UDPConn) {
	t.Helper()

	originalLogger := zap.L()
	zap.ReplaceGlobals(zaptest.NewLogger(t))
	t.Cleanup(func() { zap.ReplaceGlobals(originalLogger) })

	// port 0 binds an ephemeral port for the test
	b := NewBridge(BridgeInfo{Host: "127.0.0.1", Port: 0, MAC: "00:11:22:33:44:55"})
	l, err := b.OpenListener(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	target := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: l.Addr().(*net.UDPAddr).Port}
	sender, err := net.DialUDP("udp", nil, target)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sender.Close() })

	return l, sender
}

func TestListener_NextDecodesChannelStatus(t *testing.T) {
	l, sender := newTestListener(t)

	_, err := sender.Write(encodeChannelStatus(5, 2, 192))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg, err := l.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ChannelStatus{RoomID: 5, ChannelID: 2, Brightness: 192}, msg)
}

func TestListener_SkipsMalformedDatagrams(t *testing.T) {
	l, sender := newTestListener(t)

	_, err := sender.Write([]byte{0x99, 0x01, 0x02})
	require.NoError(t, err)
	_, err = sender.Write(encodeSceneStatus(7, 1))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg, err := l.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SceneStatus{RoomID: 7, Scene: 1}, msg)
}

func TestListener_RecordsCaches(t *testing.T) {
	l, sender := newTestListener(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := sender.Write(encodeSceneStatus(5, 2))
	require.NoError(t, err)
	_, err = l.Next(ctx)
	require.NoError(t, err)

	_, err = sender.Write(encodeChannelStatus(5, 1, 100))
	require.NoError(t, err)
	_, err = l.Next(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, l.scenes.Get(5, 0))
	// channel level is recorded against the room's current scene
	assert.Equal(t, uint8(100), l.levels.GetChannelLevel(5, 1, 2))
}

func TestListener_NextReturnsOnCancel(t *testing.T) {
	l, _ := newTestListener(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := l.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 2*time.Second)
}
