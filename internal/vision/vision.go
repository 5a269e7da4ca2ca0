package vision

import (
	"fmt"
	"image"
	"strings"
)

// 轮廓面积必须严格大于该值才算有效区域，用于过滤噪点
const NoiseFloor float64 = 20

// 游标高度不超过该值时视为细条噪声
const MinCursorHeight = 5

// 默认置信度：文字/按钮类模板抗锯齿噪声更大，使用较低阈值
const (
	DefaultConfidenceText   = 0.7
	DefaultConfidenceCommon = 0.8
)

// Region 屏幕坐标下的矩形区域 (x, y, w, h)
type Region struct {
	X int
	Y int
	W int
	H int
}

func NewRegion(x, y, w, h int) Region {
	return Region{X: x, Y: y, W: w, H: h}
}

// IsSet 宽高都为正数才是有效区域
func (r Region) IsSet() bool {
	return r.W > 0 && r.H > 0
}

func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

func (r Region) Offset() image.Point {
	return image.Point{X: r.X, Y: r.Y}
}

func (r Region) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.W, r.H)
}

// RegionFromRect 将 image.Rectangle 转回 (x, y, w, h) 形式
func RegionFromRect(rect image.Rectangle) Region {
	return Region{X: rect.Min.X, Y: rect.Min.Y, W: rect.Dx(), H: rect.Dy()}
}

// HSV 采用 OpenCV 约定: H∈[0,179], S/V∈[0,255]
type HSV struct {
	H uint8
	S uint8
	V uint8
}

const maxHue = 179

// NewHSV 超出范围的分量会被截断到合法区间
func NewHSV(h, s, v int) HSV {
	return HSV{H: uint8(clamp(h, 0, maxHue)), S: uint8(clamp(s, 0, 255)), V: uint8(clamp(v, 0, 255))}
}

type ColorRange struct {
	Name  string
	Lower HSV
	Upper HSV
}

// Valid 下限在每个通道上都不大于上限
func (c ColorRange) Valid() bool {
	return c.Lower.H <= c.Upper.H && c.Lower.S <= c.Upper.S && c.Lower.V <= c.Upper.V
}

// Blob 颜色区域轮廓，Box 为相对于截图区域的外接矩形
type Blob struct {
	Box  image.Rectangle
	Area float64
}

// MatchOptions 模板匹配参数，零值表示使用默认行为
type MatchOptions struct {
	Region     *Region // nil 时截取整个采集范围
	Confidence float64 // 0 时按模板名称选择默认值
	Grayscale  bool
}

// Thresholds 两档默认置信度
type Thresholds struct {
	Text   float64
	Common float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Text: DefaultConfidenceText, Common: DefaultConfidenceCommon}
}

// ConfidenceFor 名称里带 text 或 btn 的模板使用文字档阈值
func (t Thresholds) ConfidenceFor(name string) float64 {
	if strings.Contains(name, "text") || strings.Contains(name, "btn") {
		return t.Text
	}
	return t.Common
}

// Accept 匹配分数达到阈值即命中 (包含边界)
func Accept(score, threshold float64) bool {
	return score >= threshold
}

func AboveNoiseFloor(area float64) bool {
	return area > NoiseFloor
}

// LargestBlob 取面积最大的轮廓；面积不超过噪声下限或高度过小都视为不存在
func LargestBlob(blobs []Blob) (Blob, bool) {
	if len(blobs) == 0 {
		return Blob{}, false
	}

	best := blobs[0]
	for _, b := range blobs[1:] {
		if b.Area > best.Area {
			best = b
		}
	}
	if !AboveNoiseFloor(best.Area) {
		return Blob{}, false
	}
	if best.Box.Dy() <= MinCursorHeight {
		return Blob{}, false
	}
	return best, true
}

// CenterX 外接矩形的水平中心 (向下取整)
func CenterX(rect image.Rectangle) int {
	return rect.Min.X + rect.Dx()/2
}

// GetCenter 矩形中心点
func GetCenter(rect image.Rectangle) image.Point {
	return image.Point{X: rect.Min.X + rect.Dx()/2, Y: rect.Min.Y + rect.Dy()/2}
}

// ToGlobalPoint 局部坐标转屏幕坐标
func ToGlobalPoint(offset image.Point, local image.Point) image.Point {
	return image.Point{X: offset.X + local.X, Y: offset.Y + local.Y}
}

// InBand 点的横坐标是否落在任意色带的 [x, x+w] 范围内
func InBand(x int, bands []Blob) bool {
	for _, band := range bands {
		if band.Box.Min.X <= x && x <= band.Box.Min.X+band.Box.Dx() {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Frame 一次截图 + 一次 HSV 转换的结果，可被多次颜色查询复用
type Frame interface {
	Blobs(colorName string) []Blob
	Close()
}
