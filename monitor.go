package dollygrip

import (
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl32"
)

// Monitor is the video-assist display for a take: a BubbleTea model that
// implements PoseSink and shows the move's progress live - current frame,
// position, and orientation.
//
// A monitor can run attached to a real terminal or headless (no renderer),
// the latter being the mode tests and CI use. Poses arrive as program
// messages, so delivery from the playback worker never races the model.
//
// Example usage:
//
//	monitor := dollygrip.NewHeadlessMonitor(len(grip.Interpolate()))
//	grip.OnPlaybackStopped(monitor.NotifyStopped)
//	grip.Play(monitor)
//	...
//	monitor.Shutdown()
type Monitor struct {
	program *tea.Program
	model   *monitorModel
}

// poseMsg carries one delivered pose into the monitor model.
type poseMsg struct {
	pose Pose
}

// stoppedMsg marks the end of the take.
type stoppedMsg struct{}

// monitorModel is the BubbleTea model behind a Monitor. State is guarded by
// a mutex because the playback worker and the program goroutine both read
// it through the Monitor accessors.
type monitorModel struct {
	mu      sync.RWMutex
	frames  int
	total   int
	current Pose
	done    bool
}

func (m *monitorModel) Init() tea.Cmd { return nil }

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case poseMsg:
		m.mu.Lock()
		m.frames++
		m.current = msg.pose
		m.mu.Unlock()
	case stoppedMsg:
		m.mu.Lock()
		m.done = true
		m.mu.Unlock()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *monitorModel) View() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := "rolling"
	if m.done {
		status = "cut"
	}
	p := m.current.Position
	return fmt.Sprintf("take: %s\nframe: %d/%d\nposition: %.3f %.3f %.3f\n",
		status, m.frames, m.total, p.X(), p.Y(), p.Z())
}

// NewMonitor creates a monitor attached to the current terminal.
// totalFrames is the expected path length, used only for display.
func NewMonitor(totalFrames int) *Monitor {
	return newMonitor(totalFrames, false)
}

// NewHeadlessMonitor creates a monitor with no terminal output, suitable
// for tests and CI.
func NewHeadlessMonitor(totalFrames int) *Monitor {
	return newMonitor(totalFrames, true)
}

func newMonitor(totalFrames int, headless bool) *Monitor {
	model := &monitorModel{total: totalFrames}

	var opts []tea.ProgramOption
	if headless {
		opts = append(opts,
			tea.WithoutRenderer(),
			tea.WithInput(nil),
			tea.WithOutput(os.Stderr),
		)
	}

	program := tea.NewProgram(model, opts...)
	go func() {
		// Run returns when the program quits; monitor state stays readable.
		_, _ = program.Run()
	}()

	return &Monitor{program: program, model: model}
}

// SetPose implements PoseSink: each delivered pose is forwarded to the
// program as a message.
func (m *Monitor) SetPose(position mgl32.Vec3, orientation mgl32.Quat) {
	m.program.Send(poseMsg{pose: Pose{Position: position, Orientation: orientation}})
}

// NotifyStopped marks the take finished on the display. Wire it to
// Interpolator.OnPlaybackStopped.
func (m *Monitor) NotifyStopped() {
	m.program.Send(stoppedMsg{})
}

// FramesSeen returns how many poses the monitor has displayed.
func (m *Monitor) FramesSeen() int {
	m.model.mu.RLock()
	defer m.model.mu.RUnlock()
	return m.model.frames
}

// CurrentPose returns the most recently displayed pose.
func (m *Monitor) CurrentPose() Pose {
	m.model.mu.RLock()
	defer m.model.mu.RUnlock()
	return m.model.current
}

// Done reports whether the take has been marked stopped.
func (m *Monitor) Done() bool {
	m.model.mu.RLock()
	defer m.model.mu.RUnlock()
	return m.model.done
}

// Shutdown quits the underlying program.
func (m *Monitor) Shutdown() {
	m.program.Quit()
}
