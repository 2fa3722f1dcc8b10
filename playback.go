package dollygrip

import (
	"context"
	"time"
)

// Play starts streaming the dense path into sink in real time.
//
// With no keyframes this is a no-op. If the cached path is stale it is
// rebuilt synchronously first, so Play can briefly block the calling
// goroutine on a large move. Delivery then happens on a dedicated worker:
// one pose per frame starting at the persisted resume index, with a sleep
// of (period/speed)*0.9 between frames - the 0.9 empirically absorbs
// scheduling overhead so the realized rate matches the nominal one.
//
// Reaching the final pose rewinds the resume index to 0; stopping mid-move
// persists it so the next Play picks up where the take was cut. A Play
// while another take is running stops the previous one first.
func (i *Interpolator) Play(sink PoseSink) {
	if sink == nil {
		i.logger.Error("playback requires a pose sink")
		return
	}

	// One session at a time.
	i.Stop()

	i.mu.Lock()
	if i.track.Len() == 0 {
		i.mu.Unlock()
		return
	}

	path := i.interpolateLocked()
	if len(path) == 0 {
		i.mu.Unlock()
		return
	}

	start := i.resumeIndex
	if start >= len(path) {
		start = 0
	}
	sleep := i.frameSleep()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	i.cancelPlay = cancel
	i.playDone = done
	i.playing = true
	i.mu.Unlock()

	go i.deliver(ctx, sink, path, start, sleep, done)
}

// Stop requests cancellation of the running take.
//
// Cancellation is observed at the next sleep boundary, at most one frame
// interval after the request; Stop waits for the worker to wind down before
// returning. Stopping an idle interpolator is a no-op.
func (i *Interpolator) Stop() {
	i.mu.Lock()
	cancel := i.cancelPlay
	done := i.playDone
	i.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// IsPlaying reports whether a take is currently running.
func (i *Interpolator) IsPlaying() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.playing
}

// ResumeIndex returns the path index the next Play will start from.
func (i *Interpolator) ResumeIndex() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.resumeIndex
}

// OnFrameDelivered registers a callback fired once per pose sent during
// playback, after the sink write. The callback runs on the playback worker.
func (i *Interpolator) OnFrameDelivered(fn func(index int, pose Pose)) {
	i.mu.Lock()
	i.onFrame = fn
	i.mu.Unlock()
}

// OnPlaybackStopped registers a callback fired exactly once when a take
// ends, whether by completion or cancellation. The callback runs on the
// playback worker.
func (i *Interpolator) OnPlaybackStopped(fn func()) {
	i.mu.Lock()
	i.onStopped = fn
	i.mu.Unlock()
}

// deliver is the playback worker loop. Completion and cancellation both
// funnel through the single exit path at the bottom, which persists the
// resume index, clears the session state, and signals stopped exactly once.
func (i *Interpolator) deliver(ctx context.Context, sink PoseSink, path []Pose, start int, sleep time.Duration, done chan struct{}) {
	resume := start

loop:
	for idx := start; idx < len(path); idx++ {
		pose := path[idx]
		sink.SetPose(pose.Position, pose.Orientation)
		i.notifyFrame(idx, pose)

		if idx == len(path)-1 {
			// Reached the end frame; the next take starts over.
			resume = 0
			break
		}
		resume = idx + 1

		select {
		case <-ctx.Done():
			break loop
		case <-time.After(sleep):
		}
	}

	i.mu.Lock()
	i.resumeIndex = resume
	i.playing = false
	i.cancelPlay = nil
	i.playDone = nil
	stopped := i.onStopped
	i.mu.Unlock()

	if stopped != nil {
		stopped()
	}
	close(done)
}

func (i *Interpolator) notifyFrame(index int, pose Pose) {
	i.mu.RLock()
	fn := i.onFrame
	i.mu.RUnlock()
	if fn != nil {
		fn(index, pose)
	}
}
