package game

import (
	"errors"
	"image"
	"testing"

	"reel/internal/vision"
)

func TestSourceRejectsAfterClose(t *testing.T) {
	calls := 0
	s := &Source{
		bounds: vision.NewRegion(0, 0, 100, 100),
		grab: func(region vision.Region) (*image.RGBA, error) {
			calls++
			return image.NewRGBA(image.Rect(0, 0, region.W, region.H)), nil
		},
	}

	img, err := s.Grab(vision.NewRegion(10, 10, 20, 30))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 30 {
		t.Errorf("unexpected size %v", img.Bounds())
	}

	if _, err := s.Grab(vision.Region{}); err == nil {
		t.Error("empty region must be rejected")
	}

	s.Close()
	if _, err := s.Grab(vision.NewRegion(0, 0, 10, 10)); !errors.Is(err, ErrSourceClosed) {
		t.Errorf("Grab after Close = %v, want ErrSourceClosed", err)
	}
	if calls != 1 {
		t.Errorf("grab called %d times, want 1", calls)
	}
}

func TestNewSourceUnknownBackend(t *testing.T) {
	if _, err := NewSource("dxgi", vision.NewRegion(0, 0, 10, 10)); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNewSourceDefaultBackend(t *testing.T) {
	s, err := NewSource("", vision.NewRegion(0, 0, 640, 480))
	if err != nil {
		t.Fatal(err)
	}
	if s.Backend() != BackendRobotgo {
		t.Errorf("backend = %q, want %q", s.Backend(), BackendRobotgo)
	}
	if s.Bounds() != vision.NewRegion(0, 0, 640, 480) {
		t.Errorf("bounds = %v", s.Bounds())
	}
}

func TestToRGBANormalisesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(50, 60, 70, 90))
	out := toRGBA(src)
	if out.Rect.Min != (image.Point{}) || out.Rect.Dx() != 20 || out.Rect.Dy() != 30 {
		t.Errorf("toRGBA bounds = %v", out.Rect)
	}

	zero := image.NewRGBA(image.Rect(0, 0, 5, 5))
	if toRGBA(zero) != zero {
		t.Error("zero-origin RGBA should be returned as is")
	}
}

func TestNewGameValidation(t *testing.T) {
	if _, err := NewGame("", ""); err == nil {
		t.Error("expected error when title and process name are both empty")
	}
	g, err := NewGame("", "BrownDust II")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.GetPid(); err == nil {
		t.Error("GetPid without a process name must fail")
	}
}
