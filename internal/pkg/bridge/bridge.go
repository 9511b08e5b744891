// Package bridge owns the per-bridge entity registry, the single push
// listener goroutine, and the dispatch of pushed status messages onto
// registered entities.
package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/rako-integration/internal/pkg/model"
	"github.com/anicoll/rako-integration/internal/pkg/rako"
)

// defaultRestartBackoff is the pause before reopening the push listener
// after it dies with a real error.
const defaultRestartBackoff = 5 * time.Second

// Subscriber is an entity registered for pushed state updates.
type Subscriber interface {
	UniqueID() string
}

// BrightnessSubscriber is a light-like entity: state arrives in the
// protocol's native 0-255 brightness domain.
type BrightnessSubscriber interface {
	Subscriber
	UpdateBrightness(brightness uint8)
}

// PercentageSubscriber is a fan-like entity: state arrives as 0-100
// percent.
type PercentageSubscriber interface {
	Subscriber
	UpdatePercentage(percentage int)
}

// Listener yields pushed status messages until closed or cancelled.
type Listener interface {
	Next(ctx context.Context) (model.StatusMessage, error)
	Close() error
}

// Connection is what the bridge needs from the protocol client. Satisfied
// by *rako.Bridge via the adapter in cmd.
type Connection interface {
	Info() rako.BridgeInfo
	OpenListener(ctx context.Context) (Listener, error)
	ChannelLevels(room, scene int) []model.ChannelLevel
}

// Bridge coordinates one bridge connection: entities register and
// deregister themselves, and the listener goroutine exists exactly while
// the registry is non-empty.
type Bridge struct {
	conn     Connection
	registry *registry
	errChan  chan<- error
	backoff  time.Duration
	logger   *zap.Logger

	// lifecycleMu serializes Register/Deregister so the size-transition
	// check and the listener start/stop are one atomic step. It is never
	// taken on the dispatch path.
	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
}

// Option tweaks bridge construction.
type Option func(*Bridge)

// WithRestartBackoff overrides the listener restart pause.
func WithRestartBackoff(d time.Duration) Option {
	return func(b *Bridge) { b.backoff = d }
}

// New creates a bridge coordinator. Listener failures that are not clean
// cancellations are reported on errChan.
func New(conn Connection, errChan chan<- error, opts ...Option) *Bridge {
	b := &Bridge{
		conn:     conn,
		registry: newRegistry(),
		errChan:  errChan,
		backoff:  defaultRestartBackoff,
		logger:   zap.L(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Register adds an entity to the registry. When the registry goes from
// empty to non-empty the push listener starts. Re-registering the same
// unique ID overwrites the previous subscriber.
func (b *Bridge) Register(s Subscriber) {
	b.lifecycleMu.Lock()
	defer b.lifecycleMu.Unlock()

	if b.registry.register(s) == 1 {
		b.startListenerLocked()
	}
}

// Deregister removes an entity; a no-op if it was never registered. When
// the registry empties, the listener is cancelled and this call blocks
// until the goroutine has fully unwound.
func (b *Bridge) Deregister(s Subscriber) {
	b.lifecycleMu.Lock()
	defer b.lifecycleMu.Unlock()

	if b.registry.deregister(s) == 0 {
		b.stopListenerLocked()
	}
}

// Listening reports whether the push listener goroutine is running.
func (b *Bridge) Listening() bool {
	b.lifecycleMu.Lock()
	defer b.lifecycleMu.Unlock()
	return b.cancel != nil
}

func (b *Bridge) startListenerLocked() {
	if b.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	b.cancel = cancel
	b.done = done

	go func() {
		defer close(done)
		b.listen(ctx)
	}()
	b.logger.Debug("push listener started", zap.String("bridge", b.conn.Info().MAC))
}

func (b *Bridge) stopListenerLocked() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	<-b.done
	b.cancel = nil
	b.done = nil
	b.logger.Debug("push listener stopped", zap.String("bridge", b.conn.Info().MAC))
}

// listen supervises the push listener until cancelled. A clean cancel
// ends the goroutine; anything else is reported and retried after a
// backoff, mirroring how the service reconnects its other long-lived
// connections.
func (b *Bridge) listen(ctx context.Context) {
	for {
		err := b.listenOnce(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}

		b.logger.Error("push listener died", zap.Error(err))
		select {
		case b.errChan <- err:
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(b.backoff):
		}
	}
}

// listenOnce opens the push socket and pumps messages into the dispatcher
// until cancellation or a read error. The socket is released on every
// exit path.
func (b *Bridge) listenOnce(ctx context.Context) error {
	listener, err := b.conn.OpenListener(ctx)
	if err != nil {
		return err
	}
	defer listener.Close()

	for {
		msg, err := listener.Next(ctx)
		if err != nil {
			return err
		}
		if msg == nil {
			continue
		}
		b.applyStatus(msg)
	}
}
