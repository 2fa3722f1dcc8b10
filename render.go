package dollygrip

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PlotConfig defines the visual parameters for path plots.
type PlotConfig struct {
	Width      int        // Image width in pixels
	Height     int        // Image height in pixels
	Margin     int        // Border kept clear around the plotted move
	Background color.RGBA // Background color
	PathColor  color.RGBA // Dense path color
	MarkColor  color.RGBA // Keyframe marker color
	LabelColor color.RGBA // Keyframe index label color
}

// DefaultPlotConfig returns the stock 640x480 dark plot.
func DefaultPlotConfig() PlotConfig {
	return PlotConfig{
		Width:      640,
		Height:     480,
		Margin:     24,
		Background: color.RGBA{0, 0, 0, 255},
		PathColor:  color.RGBA{255, 51, 51, 255},
		MarkColor:  color.RGBA{51, 51, 255, 255},
		LabelColor: color.RGBA{255, 255, 255, 255},
	}
}

// PathPlotter renders a top-down view of a move to an image: the dense path
// as a connected polyline in the XY plane, keyframes as markers with index
// labels. The plot is a pure consumer of Interpolate output - a headless
// stand-in for drawing the camera path in a viewer.
type PathPlotter struct {
	config PlotConfig
	font   font.Face
}

// NewPathPlotter creates a plotter with the given configuration. Zero
// dimensions fall back to the defaults.
func NewPathPlotter(config PlotConfig) *PathPlotter {
	def := DefaultPlotConfig()
	if config.Width <= 0 {
		config.Width = def.Width
	}
	if config.Height <= 0 {
		config.Height = def.Height
	}
	if config.Margin < 0 {
		config.Margin = def.Margin
	}

	return &PathPlotter{
		config: config,
		font:   basicfont.Face7x13,
	}
}

// Plot renders the dense path and keyframe poses into a new image. An empty
// path yields a bare background.
func (pp *PathPlotter) Plot(path []Pose, keys []Pose) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, pp.config.Width, pp.config.Height))

	for y := 0; y < pp.config.Height; y++ {
		for x := 0; x < pp.config.Width; x++ {
			img.Set(x, y, pp.config.Background)
		}
	}

	if len(path) == 0 {
		return img
	}

	toPixel := pp.projection(path, keys)

	// The move itself.
	for n := 0; n+1 < len(path); n++ {
		x0, y0 := toPixel(path[n])
		x1, y1 := toPixel(path[n+1])
		drawLine(img, x0, y0, x1, y1, pp.config.PathColor)
	}

	// Keyframe markers and labels.
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(pp.config.LabelColor),
		Face: pp.font,
	}
	for n, key := range keys {
		x, y := toPixel(key)
		drawMarker(img, x, y, pp.config.MarkColor)

		drawer.Dot = fixed.Point26_6{
			X: fixed.Int26_6((x + 5) << 6),
			Y: fixed.Int26_6((y - 5) << 6),
		}
		drawer.DrawString(fmt.Sprintf("%d", n))
	}

	return img
}

// SavePNG writes an image to filename.
func (pp *PathPlotter) SavePNG(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// projection builds the world-XY-to-pixel mapping that fits every plotted
// point inside the margins, preserving aspect ratio.
func (pp *PathPlotter) projection(path []Pose, keys []Pose) func(Pose) (int, int) {
	minX, maxX := path[0].Position.X(), path[0].Position.X()
	minY, maxY := path[0].Position.Y(), path[0].Position.Y()
	expand := func(p Pose) {
		if p.Position.X() < minX {
			minX = p.Position.X()
		}
		if p.Position.X() > maxX {
			maxX = p.Position.X()
		}
		if p.Position.Y() < minY {
			minY = p.Position.Y()
		}
		if p.Position.Y() > maxY {
			maxY = p.Position.Y()
		}
	}
	for _, p := range path {
		expand(p)
	}
	for _, p := range keys {
		expand(p)
	}

	spanX := maxX - minX
	spanY := maxY - minY
	innerW := float32(pp.config.Width - 2*pp.config.Margin)
	innerH := float32(pp.config.Height - 2*pp.config.Margin)

	scaleX, scaleY := float32(0), float32(0)
	if spanX > 0 {
		scaleX = innerW / spanX
	}
	if spanY > 0 {
		scaleY = innerH / spanY
	}
	var scale float32
	switch {
	case scaleX > 0 && scaleY > 0:
		scale = min32(scaleX, scaleY)
	case scaleX > 0:
		scale = scaleX
	case scaleY > 0:
		scale = scaleY
	default:
		scale = 1
	}

	offX := float32(pp.config.Margin) + (innerW-spanX*scale)/2
	offY := float32(pp.config.Margin) + (innerH-spanY*scale)/2

	return func(p Pose) (int, int) {
		x := offX + (p.Position.X()-minX)*scale
		// Image y grows downward; world y grows upward.
		y := float32(pp.config.Height) - (offY + (p.Position.Y()-minY)*scale)
		return int(x), int(y)
	}
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// drawLine rasterizes a segment by uniform stepping; plots are diagnostic
// output, not production rendering.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := x1 - x0
	dy := y1 - y0
	steps := absInt(dx)
	if absInt(dy) > steps {
		steps = absInt(dy)
	}
	if steps == 0 {
		img.Set(x0, y0, c)
		return
	}
	for s := 0; s <= steps; s++ {
		x := x0 + dx*s/steps
		y := y0 + dy*s/steps
		img.Set(x, y, c)
	}
}

// drawMarker plots a filled 5x5 square centered on (x, y).
func drawMarker(img *image.RGBA, x, y int, c color.RGBA) {
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			img.Set(x+dx, y+dy, c)
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
