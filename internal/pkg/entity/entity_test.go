package entity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/anicoll/rako-integration/internal/pkg/model"
)

type sceneCall struct {
	room  int
	scene int
}

type brightnessCall struct {
	room       int
	channel    int
	brightness uint8
}

type fakeCommander struct {
	mu         sync.Mutex
	scenes     []sceneCall
	brightness []brightnessCall
	err        error
	blockOnCtx bool
}

func (c *fakeCommander) SetRoomScene(ctx context.Context, room, scene int) error {
	if c.blockOnCtx {
		<-ctx.Done()
		return ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.scenes = append(c.scenes, sceneCall{room: room, scene: scene})
	return nil
}

func (c *fakeCommander) SetChannelBrightness(ctx context.Context, room, channel int, brightness uint8) error {
	if c.blockOnCtx {
		<-ctx.Done()
		return ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.brightness = append(c.brightness, brightnessCall{room: room, channel: channel, brightness: brightness})
	return nil
}

type fakeCaches struct {
	scene  int
	levels map[[3]int]uint8
}

func (c *fakeCaches) SceneOf(_, def int) int {
	if c.scene == 0 {
		return def
	}
	return c.scene
}

func (c *fakeCaches) ChannelLevel(room, channel, scene int) uint8 {
	return c.levels[[3]int{room, channel, scene}]
}

type notifyRecorder struct {
	mu     sync.Mutex
	states []model.EntityState
}

func (n *notifyRecorder) notify(state model.EntityState) {
	n.mu.Lock()
	n.states = append(n.states, state)
	n.mu.Unlock()
}

func (n *notifyRecorder) last(t *testing.T) model.EntityState {
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.states)
	return n.states[len(n.states)-1]
}

func testConfig(cmd Commander, caches Caches, rec *notifyRecorder, channel int) Config {
	return Config{
		Commander: cmd,
		Caches:    caches,
		Notify:    rec.notify,
		MAC:       "00:11:22:33:44:55",
		Room:      5,
		Channel:   channel,
		Name:      "Kitchen",
		Timeout:   100 * time.Millisecond,
	}
}

func TestLight_InitialValueFromCaches(t *testing.T) {
	t.Parallel()

	caches := &fakeCaches{scene: 2, levels: map[[3]int]uint8{{5, 1, 2}: 140}}
	rec := &notifyRecorder{}

	channelLight := NewLight(testConfig(&fakeCommander{}, caches, rec, 1))
	assert.Equal(t, uint8(140), channelLight.Brightness())

	roomLight := NewLight(testConfig(&fakeCommander{}, caches, rec, 0))
	assert.Equal(t, uint8(192), roomLight.Brightness(), "room light takes the scene's nominal brightness")
}

func TestLight_SetBrightnessSendsChannelCommand(t *testing.T) {
	t.Parallel()

	cmd := &fakeCommander{}
	rec := &notifyRecorder{}
	l := NewLight(testConfig(cmd, &fakeCaches{}, rec, 3))

	require.NoError(t, l.SetBrightness(context.Background(), 200))

	assert.Equal(t, []brightnessCall{{room: 5, channel: 3, brightness: 200}}, cmd.brightness)
	assert.Equal(t, uint8(200), l.Brightness())

	state := rec.last(t)
	assert.True(t, state.Available)
	assert.Equal(t, uint8(200), state.Brightness)
	assert.Equal(t, model.KindLight, state.Kind)
}

func TestLight_RoomAddressedSendsScene(t *testing.T) {
	t.Parallel()

	cmd := &fakeCommander{}
	rec := &notifyRecorder{}
	l := NewLight(testConfig(cmd, &fakeCaches{}, rec, 0))

	require.NoError(t, l.SetBrightness(context.Background(), 255))
	require.NoError(t, l.TurnOff(context.Background()))

	assert.Equal(t, []sceneCall{{room: 5, scene: 1}, {room: 5, scene: 0}}, cmd.scenes)
	assert.Empty(t, cmd.brightness)
}

func TestLight_CommandTimeoutMarksUnavailable(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.ErrorLevel)
	cmd := &fakeCommander{blockOnCtx: true}
	rec := &notifyRecorder{}
	cfg := testConfig(cmd, &fakeCaches{}, rec, 1)

	l := NewLight(cfg)
	l.logger = zap.New(core)

	start := time.Now()
	err := l.SetBrightness(context.Background(), 100)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	assert.False(t, l.Available())
	state := rec.last(t)
	assert.False(t, state.Available)

	// a second failure must not log again
	_ = l.SetBrightness(context.Background(), 50)
	assert.Equal(t, 1, logs.Len(), "only the transition to unavailable is logged")
}

func TestLight_SuccessRestoresAvailability(t *testing.T) {
	t.Parallel()

	cmd := &fakeCommander{err: errors.New("bridge offline")}
	rec := &notifyRecorder{}
	l := NewLight(testConfig(cmd, &fakeCaches{}, rec, 1))

	require.Error(t, l.SetBrightness(context.Background(), 100))
	assert.False(t, l.Available())

	cmd.mu.Lock()
	cmd.err = nil
	cmd.mu.Unlock()

	require.NoError(t, l.SetBrightness(context.Background(), 100))
	assert.True(t, l.Available())
	assert.True(t, rec.last(t).Available)
}

func TestLight_FailedCommandKeepsBrightness(t *testing.T) {
	t.Parallel()

	cmd := &fakeCommander{}
	rec := &notifyRecorder{}
	l := NewLight(testConfig(cmd, &fakeCaches{}, rec, 1))

	require.NoError(t, l.SetBrightness(context.Background(), 180))

	cmd.mu.Lock()
	cmd.err = errors.New("bridge offline")
	cmd.mu.Unlock()

	require.Error(t, l.SetBrightness(context.Background(), 30))
	assert.Equal(t, uint8(180), l.Brightness(), "failed commands must not change the level")
}

func TestLight_Apply(t *testing.T) {
	t.Parallel()

	cmd := &fakeCommander{}
	rec := &notifyRecorder{}
	l := NewLight(testConfig(cmd, &fakeCaches{}, rec, 1))

	on := true
	off := false
	brightness := uint8(90)

	require.NoError(t, l.Apply(context.Background(), model.Command{State: &on}))
	assert.Equal(t, uint8(255), l.Brightness())

	require.NoError(t, l.Apply(context.Background(), model.Command{Brightness: &brightness, State: &on}))
	assert.Equal(t, uint8(90), l.Brightness(), "explicit brightness wins over the on flag")

	require.NoError(t, l.Apply(context.Background(), model.Command{State: &off}))
	assert.Equal(t, uint8(0), l.Brightness())

	require.NoError(t, l.Apply(context.Background(), model.Command{}))
	assert.Equal(t, uint8(0), l.Brightness(), "an empty command is a no-op")
}

func TestLight_UpdateBrightnessNotifiesWithoutCommanding(t *testing.T) {
	t.Parallel()

	cmd := &fakeCommander{}
	rec := &notifyRecorder{}
	l := NewLight(testConfig(cmd, &fakeCaches{}, rec, 1))

	l.UpdateBrightness(77)

	assert.Equal(t, uint8(77), l.Brightness())
	assert.Empty(t, cmd.brightness)
	assert.Empty(t, cmd.scenes)
	assert.Equal(t, uint8(77), rec.last(t).Brightness)
}

func TestFan_InitialValueFromCaches(t *testing.T) {
	t.Parallel()

	caches := &fakeCaches{scene: 3, levels: map[[3]int]uint8{{5, 2, 3}: 128}}
	rec := &notifyRecorder{}

	f := NewFan(testConfig(&fakeCommander{}, caches, rec, 2))
	assert.Equal(t, 50, f.Percentage())
}

func TestFan_SetPercentageSendsBrightness(t *testing.T) {
	t.Parallel()

	cmd := &fakeCommander{}
	rec := &notifyRecorder{}
	f := NewFan(testConfig(cmd, &fakeCaches{}, rec, 2))

	require.NoError(t, f.SetPercentage(context.Background(), 50))

	assert.Equal(t, []brightnessCall{{room: 5, channel: 2, brightness: 128}}, cmd.brightness)
	assert.Equal(t, 50, f.Percentage())

	state := rec.last(t)
	assert.Equal(t, model.KindFan, state.Kind)
	assert.Equal(t, 50, state.Percentage)
}

func TestFan_TurnOnDefaultsToFullSpeed(t *testing.T) {
	t.Parallel()

	cmd := &fakeCommander{}
	rec := &notifyRecorder{}
	f := NewFan(testConfig(cmd, &fakeCaches{}, rec, 2))

	require.NoError(t, f.TurnOn(context.Background()))
	assert.Equal(t, 100, f.Percentage())

	require.NoError(t, f.TurnOff(context.Background()))
	assert.Equal(t, 0, f.Percentage())
}

func TestFan_Apply(t *testing.T) {
	t.Parallel()

	cmd := &fakeCommander{}
	rec := &notifyRecorder{}
	f := NewFan(testConfig(cmd, &fakeCaches{}, rec, 2))

	on := true
	pct := 40

	require.NoError(t, f.Apply(context.Background(), model.Command{Percentage: &pct, State: &on}))
	assert.Equal(t, 40, f.Percentage(), "explicit percentage wins over the on flag")

	require.NoError(t, f.Apply(context.Background(), model.Command{State: &on}))
	assert.Equal(t, 100, f.Percentage())
}

func TestFan_RoomAddressedSendsScene(t *testing.T) {
	t.Parallel()

	cmd := &fakeCommander{}
	rec := &notifyRecorder{}
	f := NewFan(testConfig(cmd, &fakeCaches{}, rec, 0))

	require.NoError(t, f.SetPercentage(context.Background(), 100))
	assert.Equal(t, []sceneCall{{room: 5, scene: 1}}, cmd.scenes)
}
