package dollygrip

import (
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorCountsDeliveredPoses(t *testing.T) {
	monitor := NewHeadlessMonitor(5)
	defer monitor.Shutdown()

	for n := 0; n < 5; n++ {
		monitor.SetPose(mgl32.Vec3{float32(n), 0, 0}, mgl32.QuatIdent())
	}

	assert.Eventually(t, func() bool {
		return monitor.FramesSeen() == 5
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, float32(4), monitor.CurrentPose().Position.X())
}

func TestMonitorMarksDone(t *testing.T) {
	monitor := NewHeadlessMonitor(1)
	defer monitor.Shutdown()

	require.False(t, monitor.Done())
	monitor.NotifyStopped()

	assert.Eventually(t, monitor.Done, 2*time.Second, 10*time.Millisecond)
}

func TestMonitorViewShowsStatus(t *testing.T) {
	model := &monitorModel{total: 10}

	view := model.View()
	assert.Contains(t, view, "rolling")
	assert.Contains(t, view, "0/10")

	updated, _ := model.Update(poseMsg{pose: poseAt(1.5, 2.5, 3.5)})
	assert.Same(t, model, updated)
	updated, _ = model.Update(stoppedMsg{})
	assert.Same(t, model, updated)

	view = model.View()
	assert.Contains(t, view, "cut")
	assert.Contains(t, view, "1/10")
	assert.True(t, strings.Contains(view, "1.500"))
}

func TestMonitorAsPlaybackSink(t *testing.T) {
	grip := shortMoveGrip(t)
	path := grip.Interpolate()
	require.NotEmpty(t, path)

	monitor := NewHeadlessMonitor(len(path))
	defer monitor.Shutdown()

	stopped := make(chan struct{})
	grip.OnPlaybackStopped(func() {
		monitor.NotifyStopped()
		close(stopped)
	})

	grip.Play(monitor)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not finish")
	}

	assert.Eventually(t, func() bool {
		return monitor.FramesSeen() == len(path)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, monitor.Done, 2*time.Second, 10*time.Millisecond)
	assert.InDelta(t, 10, monitor.CurrentPose().Position.X(), 1e-2)
}
