package dollygrip

import (
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink collects every delivered pose.
type recordingSink struct {
	mu    sync.Mutex
	poses []Pose
}

func (s *recordingSink) SetPose(position mgl32.Vec3, orientation mgl32.Quat) {
	s.mu.Lock()
	s.poses = append(s.poses, Pose{Position: position, Orientation: orientation})
	s.mu.Unlock()
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.poses)
}

func (s *recordingSink) last() Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poses[len(s.poses)-1]
}

// shortMoveGrip builds a move that plays out in roughly 50ms of wall time.
func shortMoveGrip(t *testing.T) *Interpolator {
	t.Helper()
	grip := NewInterpolator().WithFrameRate(30).WithSpeed(10)
	require.NoError(t, grip.AddKeyFrameAt(poseAt(0, 0, 0), 0))
	require.NoError(t, grip.AddKeyFrameAt(poseAt(10, 0, 0), 0.05))
	return grip
}

func TestPlayDeliversWholePath(t *testing.T) {
	grip := shortMoveGrip(t)
	path := grip.Interpolate()
	require.NotEmpty(t, path)

	sink := &recordingSink{}
	stopped := make(chan struct{})
	grip.OnPlaybackStopped(func() { close(stopped) })

	grip.Play(sink)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not finish")
	}

	assert.Equal(t, len(path), sink.count())
	assert.InDelta(t, 10, sink.last().Position.X(), 1e-2)
	assert.False(t, grip.IsPlaying())

	// Completing the move rewinds the resume index.
	assert.Zero(t, grip.ResumeIndex())
}

func TestPlayWithoutKeyFramesIsNoOp(t *testing.T) {
	grip := NewInterpolator()
	sink := &recordingSink{}

	grip.Play(sink)
	assert.False(t, grip.IsPlaying())
	assert.Zero(t, sink.count())

	// A nil sink is rejected outright.
	grip.Play(nil)
	assert.False(t, grip.IsPlaying())
}

func TestStopMidMovePersistsResumeIndex(t *testing.T) {
	grip := NewInterpolator().WithFrameRate(30).WithSpeed(1)
	require.NoError(t, grip.AddKeyFrameAt(poseAt(0, 0, 0), 0))
	require.NoError(t, grip.AddKeyFrameAt(poseAt(10, 0, 0), 10))

	sink := &recordingSink{}
	grip.Play(sink)
	require.True(t, grip.IsPlaying())

	// Let a few frames through, then cut.
	time.Sleep(120 * time.Millisecond)
	grip.Stop()

	assert.False(t, grip.IsPlaying())
	require.Greater(t, sink.count(), 0)
	assert.Greater(t, grip.ResumeIndex(), 0)

	// A pacing change renumbers the path, so the saved index is discarded.
	require.NoError(t, grip.SetSpeed(2))
	assert.Zero(t, grip.ResumeIndex())
}

func TestStopThenPlayResumesFromSavedFrame(t *testing.T) {
	grip := NewInterpolator().WithFrameRate(30).WithSpeed(1)
	require.NoError(t, grip.AddKeyFrameAt(poseAt(0, 0, 0), 0))
	require.NoError(t, grip.AddKeyFrameAt(poseAt(10, 0, 0), 10))

	sink := &recordingSink{}
	grip.Play(sink)
	time.Sleep(120 * time.Millisecond)
	grip.Stop()

	resume := grip.ResumeIndex()
	require.Greater(t, resume, 0)

	// Resume and immediately cut again; the first frame delivered must be
	// the saved one, not frame zero.
	var first Pose
	var firstIndex int
	captured := make(chan struct{})
	var once sync.Once
	grip.OnFrameDelivered(func(index int, pose Pose) {
		once.Do(func() {
			firstIndex = index
			first = pose
			close(captured)
		})
	})

	grip.Play(sink)
	select {
	case <-captured:
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered after resume")
	}
	grip.Stop()

	assert.Equal(t, resume, firstIndex)
	assert.Greater(t, first.Position.X(), float32(0))
}

func TestStopIdleIsNoOp(t *testing.T) {
	grip := shortMoveGrip(t)
	grip.Stop()
	grip.Stop()
	assert.False(t, grip.IsPlaying())
}

func TestStoppedCallbackFiresExactlyOnce(t *testing.T) {
	grip := shortMoveGrip(t)

	var mu sync.Mutex
	fired := 0
	done := make(chan struct{})
	grip.OnPlaybackStopped(func() {
		mu.Lock()
		fired++
		mu.Unlock()
		select {
		case <-done:
		default:
			close(done)
		}
	})

	grip.Play(&recordingSink{})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not finish")
	}

	// Redundant stops after completion do not re-fire the callback.
	grip.Stop()
	grip.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, fired)
}

func TestOnFrameDeliveredSeesEveryFrameInOrder(t *testing.T) {
	grip := shortMoveGrip(t)
	path := grip.Interpolate()

	var mu sync.Mutex
	var indices []int
	stopped := make(chan struct{})
	grip.OnFrameDelivered(func(index int, pose Pose) {
		mu.Lock()
		indices = append(indices, index)
		mu.Unlock()
	})
	grip.OnPlaybackStopped(func() { close(stopped) })

	grip.Play(&recordingSink{})
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, indices, len(path))
	for n, idx := range indices {
		assert.Equal(t, n, idx)
	}
}

func TestMutationDuringPlaybackStopsIt(t *testing.T) {
	grip := NewInterpolator().WithFrameRate(30).WithSpeed(1)
	require.NoError(t, grip.AddKeyFrameAt(poseAt(0, 0, 0), 0))
	require.NoError(t, grip.AddKeyFrameAt(poseAt(10, 0, 0), 10))

	grip.Play(&recordingSink{})
	require.True(t, grip.IsPlaying())

	require.NoError(t, grip.AddKeyFrameAt(poseAt(20, 0, 0), 20))
	assert.False(t, grip.IsPlaying())
	assert.Zero(t, grip.ResumeIndex())
}

func TestPlayWhilePlayingRestarts(t *testing.T) {
	grip := NewInterpolator().WithFrameRate(30).WithSpeed(1)
	require.NoError(t, grip.AddKeyFrameAt(poseAt(0, 0, 0), 0))
	require.NoError(t, grip.AddKeyFrameAt(poseAt(10, 0, 0), 10))

	sink := &recordingSink{}
	grip.Play(sink)
	require.True(t, grip.IsPlaying())

	// A second Play cuts the first take before starting its own.
	grip.Play(sink)
	assert.True(t, grip.IsPlaying())
	grip.Stop()
	assert.False(t, grip.IsPlaying())
}
