package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"sync"

	_ "golang.org/x/image/webp"
)

// StillSource serves a fixed frame, either decoded from an image file or a
// generated test pattern. Only one stream may be open at a time.
type StillSource struct {
	path string

	mu   sync.Mutex
	open bool
}

// NewFileSource serves frames from a JPEG, PNG or WebP file.
func NewFileSource(path string) *StillSource {
	return &StillSource{path: path}
}

// NewPatternSource serves a generated frame sized to the requested constraints.
func NewPatternSource() *StillSource {
	return &StillSource{}
}

func (s *StillSource) Open(ctx context.Context, constraints Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return nil, ErrDeviceBusy
	}

	var (
		frame image.Image
		err   error
	)
	if s.path != "" {
		frame, err = loadFrame(s.path)
	} else {
		frame = testPattern(constraints.Width, constraints.Height)
	}
	if err != nil {
		return nil, err
	}

	b := frame.Bounds()
	if b.Dx() < constraints.MinWidth || b.Dy() < constraints.MinHeight {
		return nil, fmt.Errorf("%w: frame %dx%d below minimum %dx%d",
			ErrConstraintsUnsupported, b.Dx(), b.Dy(), constraints.MinWidth, constraints.MinHeight)
	}

	s.open = true
	return &stillStream{frame: frame, release: s.release}, nil
}

func (s *StillSource) release() {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
}

func loadFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	case err != nil:
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// testPattern draws a vertical gradient with a centered silhouette block.
func testPattern(width, height int) image.Image {
	if width <= 0 || height <= 0 {
		width, height = 1280, 720
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	bodyLeft, bodyRight := width*2/5, width*3/5
	bodyTop := height / 5

	for y := 0; y < height; y++ {
		shade := uint8(60 + 140*y/height)
		for x := 0; x < width; x++ {
			c := color.RGBA{R: shade / 2, G: shade / 2, B: shade, A: 255}
			if x >= bodyLeft && x < bodyRight && y >= bodyTop {
				c = color.RGBA{R: 210, G: 170, B: 140, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

type stillStream struct {
	frame   image.Image
	release func()

	mu      sync.Mutex
	stopped bool
}

func (s *stillStream) Tracks() []Track {
	return []Track{s}
}

func (s *stillStream) Frame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, ErrTrackEnded
	}
	return s.frame, nil
}

// Stop ends the video track and frees the source for the next Open.
func (s *stillStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.release()
}
