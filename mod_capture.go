package orbital

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
)

// CaptureStage runs after Render, once the composite target holds the frame.
var CaptureStage = Stage{Name: "Capture"}

// CaptureModule writes the composited frame to a PNG file when F12 is pressed.
type CaptureModule struct{}

type Capture struct {
	// Last is the path of the most recent capture.
	Last  string
	Count int

	pixels []byte
}

func (mod CaptureModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Capture{})
	app.UseStage(CaptureStage, AfterStage(Render))
	app.UseSystem(
		System(captureSystem).
			InStage(CaptureStage),
	)
}

func captureSystem(input *Input, s *OrbitalState, cfg *Config, capture *Capture, app *App) {
	if !input.JustPressed[KeyF12] || s.Pipeline == nil {
		return
	}
	path := capturePath(cfg.Capture.Dir, app.RunID, app.Frame())
	if err := capture.save(s, cfg.Capture.Scale, path); err != nil {
		app.Logger().Errorf("capture: %v", err)
		return
	}
	app.Logger().Infof("captured %s", path)
}

func (c *Capture) save(s *OrbitalState, scale float64, path string) error {
	width, height := s.Pipeline.Size()
	if need := int(4 * width * height); len(c.pixels) < need {
		c.pixels = make([]byte, need)
	}
	w, h, err := s.Pipeline.ReadComposite(c.pixels)
	if err != nil {
		return err
	}
	img := scaleImage(imageFromRows(c.pixels, int(w), int(h)), scale)
	if err := writePNG(path, img); err != nil {
		return err
	}
	c.Last = path
	c.Count++
	return nil
}

func capturePath(dir string, runID uuid.UUID, frame uint64) string {
	return filepath.Join(dir, fmt.Sprintf("orbital-%s-%d.png", runID, frame))
}

// imageFromRows converts bottom-up RGBA8 rows, as read back from the GPU, into a top-down
// image.
func imageFromRows(pix []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	stride := 4 * width
	for y := 0; y < height; y++ {
		src := pix[(height-1-y)*stride : (height-y)*stride]
		copy(img.Pix[y*img.Stride:y*img.Stride+stride], src)
	}
	return img
}

func scaleImage(src *image.RGBA, scale float64) *image.RGBA {
	if scale == 1 || scale <= 0 {
		return src
	}
	b := src.Bounds()
	w := max(1, int(float64(b.Dx())*scale+0.5))
	h := max(1, int(float64(b.Dy())*scale+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
