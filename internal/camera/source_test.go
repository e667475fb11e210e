package camera

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/emotion-stream/internal/logger"
	"github.com/vzahanych/emotion-stream/internal/service"
)

// fakeSource yields a fixed number of small frames, then fails
type fakeSource struct {
	frames  int
	readErr error

	mu       sync.Mutex
	read     int
	inFlight int32
	overlap  bool
	closes   int
}

func (f *fakeSource) NextFrame() (image.Image, error) {
	if atomic.AddInt32(&f.inFlight, 1) > 1 {
		f.overlap = true
	}
	defer atomic.AddInt32(&f.inFlight, -1)
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.read >= f.frames {
		if f.readErr != nil {
			return nil, f.readErr
		}
		return nil, ErrEndOfStream
	}
	f.read++
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{R: uint8(f.read), A: 255})
	return img, nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func openerFor(src Source) Opener {
	return func(ctx context.Context) (Source, error) { return src, nil }
}

func TestShared_NotOpenIsEndOfStream(t *testing.T) {
	shared := NewShared(openerFor(&fakeSource{frames: 1}))
	_, err := shared.NextFrame()
	assert.ErrorIs(t, err, ErrEndOfStream)
	assert.NoError(t, shared.Close())
}

func TestShared_ReadsUntilEndOfStream(t *testing.T) {
	src := &fakeSource{frames: 3}
	shared := NewShared(openerFor(src))
	require.NoError(t, shared.Open(context.Background()))
	require.NoError(t, shared.Open(context.Background()), "second open is a no-op")

	for i := 0; i < 3; i++ {
		img, err := shared.NextFrame()
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
	}
	_, err := shared.NextFrame()
	assert.ErrorIs(t, err, ErrEndOfStream)
	assert.True(t, shared.IsOpen(), "a failed read does not release the device")
}

func TestShared_ReadFailureIsEndOfStream(t *testing.T) {
	shared := NewShared(openerFor(&fakeSource{readErr: errors.New("device unplugged")}))
	require.NoError(t, shared.Open(context.Background()))

	_, err := shared.NextFrame()
	assert.ErrorIs(t, err, ErrEndOfStream)
	assert.Contains(t, err.Error(), "device unplugged")
}

func TestShared_OpenFailure(t *testing.T) {
	shared := NewShared(func(ctx context.Context) (Source, error) {
		return nil, errors.New("no such device")
	})
	err := shared.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such device")
	assert.False(t, shared.IsOpen())
}

func TestShared_CloseIsIdempotent(t *testing.T) {
	src := &fakeSource{frames: 5}
	shared := NewShared(openerFor(src))
	require.NoError(t, shared.Open(context.Background()))

	require.NoError(t, shared.Close())
	require.NoError(t, shared.Close())
	assert.Equal(t, 1, src.closes)

	_, err := shared.NextFrame()
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestShared_SerializesReaders(t *testing.T) {
	src := &fakeSource{frames: 100}
	shared := NewShared(openerFor(src))
	require.NoError(t, shared.Open(context.Background()))

	var wg sync.WaitGroup
	var got int32
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, err := shared.NextFrame(); err != nil {
					return
				}
				atomic.AddInt32(&got, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(100), got, "every frame is delivered to exactly one reader")
	assert.False(t, src.overlap, "reads never overlap")
}

func TestService_Lifecycle(t *testing.T) {
	src := &fakeSource{frames: 1}
	svc := NewService("fake", openerFor(src), logger.NewNopLogger())
	bus := service.NewEventBus(10)
	svc.SetEventBus(bus)
	events := bus.SubscribeAll()

	assert.Error(t, svc.HealthCheck(context.Background()))

	require.NoError(t, svc.Start(context.Background()))
	assert.NoError(t, svc.HealthCheck(context.Background()))
	assert.True(t, svc.GetStatus().IsRunning())
	assert.Equal(t, service.EventTypeCameraOpened, (<-events).Type)

	require.NoError(t, svc.Stop(context.Background()))
	assert.Equal(t, service.EventTypeCameraClosed, (<-events).Type)
	require.NoError(t, svc.Close())
	assert.Equal(t, 1, src.closes)
	assert.Equal(t, service.StatusStopped, svc.GetStatus().GetStatus())
}

func TestService_StartFailure(t *testing.T) {
	svc := NewService("fake", func(ctx context.Context) (Source, error) {
		return nil, errors.New("busy")
	}, logger.NewNopLogger())

	require.Error(t, svc.Start(context.Background()))
	assert.Equal(t, service.StatusError, svc.GetStatus().GetStatus())

	_, err := svc.Source().NextFrame()
	assert.ErrorIs(t, err, ErrEndOfStream, "an unavailable device surfaces as end of stream")
}
