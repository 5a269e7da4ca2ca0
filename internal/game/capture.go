package game

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync/atomic"

	"reel/internal/vision"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"
)

const (
	BackendRobotgo    = "robotgo"
	BackendScreenshot = "screenshot"
)

var ErrSourceClosed = errors.New("截图源已释放")

// NewSource 必须在工作协程内调用，截图句柄不能跨会话复用
// bounds 未设置时使用主显示器范围
func NewSource(backend string, bounds vision.Region) (*Source, error) {
	var grab grabFunc
	switch backend {
	case "", BackendRobotgo:
		backend = BackendRobotgo
		grab = grabRobotgo
		if !bounds.IsSet() {
			w, h := robotgo.GetScreenSize()
			bounds = vision.NewRegion(0, 0, w, h)
		}
	case BackendScreenshot:
		if screenshot.NumActiveDisplays() <= 0 {
			return nil, errors.New("未检测到可用显示器")
		}
		grab = grabScreenshot
		if !bounds.IsSet() {
			bounds = vision.RegionFromRect(screenshot.GetDisplayBounds(0))
		}
	default:
		return nil, fmt.Errorf("未知的截图方式: %s", backend)
	}

	if !bounds.IsSet() {
		return nil, errors.New("无法获取屏幕尺寸")
	}
	return &Source{backend: backend, bounds: bounds, grab: grab}, nil
}

type grabFunc func(region vision.Region) (*image.RGBA, error)

// Source 截图源，返回 4 通道像素 (第 4 通道不参与识别)
type Source struct {
	backend string
	bounds  vision.Region
	grab    grabFunc
	closed  atomic.Bool
}

func (s *Source) Grab(region vision.Region) (*image.RGBA, error) {
	if s.closed.Load() {
		return nil, ErrSourceClosed
	}
	if !region.IsSet() {
		return nil, fmt.Errorf("截图区域无效: %s", region)
	}
	return s.grab(region)
}

func (s *Source) Bounds() vision.Region {
	return s.bounds
}

func (s *Source) Backend() string {
	return s.backend
}

func (s *Source) Close() error {
	s.closed.Store(true)
	return nil
}

func grabRobotgo(region vision.Region) (*image.RGBA, error) {
	bitmap := robotgo.CaptureScreen(region.X, region.Y, region.W, region.H)
	if bitmap == nil {
		return nil, errors.New("robotgo 截图失败")
	}
	defer robotgo.FreeBitmap(bitmap)

	return toRGBA(robotgo.ToImage(bitmap)), nil
}

func grabScreenshot(region vision.Region) (*image.RGBA, error) {
	img, err := screenshot.CaptureRect(region.Rect())
	if err != nil {
		return nil, err
	}
	// 统一成以 (0,0) 为原点
	if img.Rect.Min != (image.Point{}) {
		return toRGBA(img), nil
	}
	return img, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
