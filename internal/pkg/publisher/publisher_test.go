package publisher

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/rako-integration/internal/pkg/model"
)

type fakeSink struct {
	writes      atomic.Int64
	registers   atomic.Int64
	deregisters atomic.Int64
	writeErr    error
}

func (s *fakeSink) Write(_ context.Context, _ model.EntityState) error {
	s.writes.Add(1)
	return s.writeErr
}

func (s *fakeSink) RegisterEntity(_ model.EntityState) error {
	s.registers.Add(1)
	return nil
}

func (s *fakeSink) DeregisterEntity(_ string) error {
	s.deregisters.Add(1)
	return nil
}

// the registry is package-global, so every test registers under a fresh
// name and uses a distinct unique ID
var nameCounter atomic.Int64

func register(t *testing.T, s *fakeSink) {
	t.Helper()
	require.NoError(t, RegisterPublisher(fmt.Sprintf("sink-%d", nameCounter.Add(1)), s))
}

func stateFor(t *testing.T, brightness uint8) model.EntityState {
	return model.EntityState{
		UniqueID:   "test_" + t.Name(),
		Kind:       model.KindLight,
		Available:  true,
		Brightness: brightness,
	}
}

func TestRegisterPublisher_Duplicate(t *testing.T) {
	s := &fakeSink{}
	name := fmt.Sprintf("sink-%d", nameCounter.Add(1))
	require.NoError(t, RegisterPublisher(name, s))
	assert.ErrorIs(t, RegisterPublisher(name, s), errAlreadyRegistered)
}

func TestPublishState_SuppressesDuplicates(t *testing.T) {
	s := &fakeSink{}
	register(t, s)

	PublishState(context.Background(), stateFor(t, 100))
	PublishState(context.Background(), stateFor(t, 100))
	assert.Equal(t, int64(1), s.writes.Load(), "identical snapshots must be suppressed")

	PublishState(context.Background(), stateFor(t, 50))
	assert.Equal(t, int64(2), s.writes.Load())
}

func TestPublishState_SinkErrorsDoNotPropagate(t *testing.T) {
	failing := &fakeSink{writeErr: errors.New("broker down")}
	register(t, failing)

	PublishState(context.Background(), stateFor(t, 10))
	assert.Equal(t, int64(1), failing.writes.Load())
}

func TestDeregisterEntity_ResetsSuppression(t *testing.T) {
	s := &fakeSink{}
	register(t, s)

	PublishState(context.Background(), stateFor(t, 42))
	DeregisterEntity(stateFor(t, 42).UniqueID)
	PublishState(context.Background(), stateFor(t, 42))

	assert.GreaterOrEqual(t, s.writes.Load(), int64(2), "deregistering must clear the last-state cache")
	assert.GreaterOrEqual(t, s.deregisters.Load(), int64(1))
}

func TestRegisterEntity_FansOut(t *testing.T) {
	s := &fakeSink{}
	register(t, s)

	RegisterEntity(stateFor(t, 1))
	assert.GreaterOrEqual(t, s.registers.Load(), int64(1))
}
