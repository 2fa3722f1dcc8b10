package dollygrip

import (
	"bufio"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/teranos/dollygrip/trip"
)

// Keyframe files are plain text, one pose per frame block:
//
//	\tnum_key_frames: N
//	\tframe: 0
//	\t\tposition: x y z
//	\t\torientation: qx qy qz qw
//	...
//
// Times are not persisted. Loading re-times every pose through the
// distance-proportional auto scheme, so a round trip preserves poses and
// order but generally not the original timestamps.

// SaveKeyFrames writes the current keyframes to filename.
//
// Returns a trip.KindIO error if the file cannot be created, and succeeds
// only if at least one keyframe was written.
func (i *Interpolator) SaveKeyFrames(filename string) error {
	output, err := os.Create(filename)
	if err != nil {
		t := trip.IOFailure("open", filename, err)
		i.trips.Record(t)
		i.logger.Error("save keyframes failed", "file", filename, "error", err)
		return t
	}
	defer output.Close()

	i.mu.RLock()
	keys := i.track.keys
	i.mu.RUnlock()

	w := bufio.NewWriter(output)
	fmt.Fprintf(w, "\tnum_key_frames: %d\n", len(keys))
	for id := range keys {
		k := &keys[id]
		fmt.Fprintf(w, "\tframe: %d\n", id)
		fmt.Fprintf(w, "\t\tposition: %g %g %g\n",
			k.Position.X(), k.Position.Y(), k.Position.Z())
		fmt.Fprintf(w, "\t\torientation: %g %g %g %g\n",
			k.Orientation.X(), k.Orientation.Y(), k.Orientation.Z(), k.Orientation.W)
	}
	if err := w.Flush(); err != nil {
		t := trip.IOFailure("write", filename, err)
		i.trips.Record(t)
		return t
	}

	if len(keys) == 0 {
		t := trip.IOFailure("write", filename, fmt.Errorf("no keyframes to save"))
		i.trips.Record(t)
		i.logger.Error("save keyframes wrote an empty file", "file", filename)
		return t
	}
	return nil
}

// ReadKeyFrames loads keyframes from filename, replacing the current track.
//
// Existing keyframes are cleared first (stopping any playback). Each loaded
// pose is appended with auto-derived timing. Returns a trip.KindIO error if
// the file cannot be opened or parsed, or if it contains no keyframes.
func (i *Interpolator) ReadKeyFrames(filename string) error {
	input, err := os.Open(filename)
	if err != nil {
		t := trip.IOFailure("open", filename, err)
		i.trips.Record(t)
		i.logger.Error("read keyframes failed", "file", filename, "error", err)
		return t
	}
	defer input.Close()

	i.ClearKeyFrames()

	r := bufio.NewReader(input)
	var dummy string
	var numKeyFrames int
	if _, err := fmt.Fscan(r, &dummy, &numKeyFrames); err != nil {
		t := trip.IOFailure("parse", filename, err)
		i.trips.Record(t)
		return t
	}

	for j := 0; j < numKeyFrames; j++ {
		var frameID int
		var x, y, z, qx, qy, qz, qw float32
		if _, err := fmt.Fscan(r, &dummy, &frameID); err != nil {
			t := trip.IOFailure("parse", filename, err)
			i.trips.Record(t)
			return t
		}
		if _, err := fmt.Fscan(r, &dummy, &x, &y, &z); err != nil {
			t := trip.IOFailure("parse", filename, err)
			i.trips.Record(t)
			return t
		}
		if _, err := fmt.Fscan(r, &dummy, &qx, &qy, &qz, &qw); err != nil {
			t := trip.IOFailure("parse", filename, err)
			i.trips.Record(t)
			return t
		}

		pose := Pose{
			Position:    mgl32.Vec3{x, y, z},
			Orientation: mgl32.Quat{W: qw, V: mgl32.Vec3{qx, qy, qz}},
		}
		if err := i.AddKeyFrame(pose); err != nil {
			return err
		}
	}

	if i.KeyFrameCount() == 0 {
		t := trip.IOFailure("read", filename, fmt.Errorf("no keyframes in file"))
		i.trips.Record(t)
		return t
	}
	return nil
}
