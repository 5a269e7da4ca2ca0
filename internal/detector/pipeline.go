package detector

import (
	"image"
	"sync"

	"reel/internal/vision"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
)

// Source 截图能力，由 game 包提供实现
type Source interface {
	Grab(region vision.Region) (*image.RGBA, error)
	Bounds() vision.Region
	Close() error
}

type PipelineConfig struct {
	TemplateDir string
	Images      map[string]string // 模板名称 -> 文件名
	Colors      map[string]vision.ColorRange
	Thresholds  vision.Thresholds
}

// Pipeline 感知管线: 模板匹配 + 颜色区域检测
// 每次查询都会重新截图，查询失败一律表现为"未识别"，不会返回错误
type Pipeline struct {
	source     Source
	templates  *TemplateStore
	colors     map[string]vision.ColorRange
	thresholds vision.Thresholds

	templateDetector TemplateDetector
	colorDetector    ColorDetector

	mu     sync.Mutex
	warned map[string]bool

	closeOnce sync.Once
	closeErr  error
}

func NewPipeline(source Source, cfg PipelineConfig) *Pipeline {
	store := LoadTemplates(cfg.TemplateDir, cfg.Images)
	return NewPipelineWithTemplates(source, store, cfg.Colors, cfg.Thresholds)
}

func NewPipelineWithTemplates(source Source, store *TemplateStore, colors map[string]vision.ColorRange, thresholds vision.Thresholds) *Pipeline {
	if colors == nil {
		colors = map[string]vision.ColorRange{}
	}
	if thresholds.Text == 0 || thresholds.Common == 0 {
		thresholds = vision.DefaultThresholds()
	}
	return &Pipeline{
		source:           source,
		templates:        store,
		colors:           colors,
		thresholds:       thresholds,
		templateDetector: NewTemplateDetector(),
		colorDetector:    NewColorDetector(),
		warned:           make(map[string]bool),
	}
}

// MatchTemplate 返回匹配中心点的屏幕坐标
func (p *Pipeline) MatchTemplate(name string, opts vision.MatchOptions) (image.Point, bool) {
	template, ok := p.templates.Get(name)
	if !ok {
		p.warnOnce("template:"+name, "[感知] 未加载的图片模板: "+name)
		return image.Point{}, false
	}

	region := p.source.Bounds()
	if opts.Region != nil && opts.Region.IsSet() {
		region = *opts.Region
	}

	src, err := p.grabMat(region)
	if err != nil {
		log.Debug().Err(err).Str("template", name).Msg("[感知] 截图失败")
		return image.Point{}, false
	}
	defer src.Close()

	img := src
	if opts.Grayscale {
		gray := gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
		img = gray
	}

	threshold := opts.Confidence
	if threshold <= 0 {
		threshold = p.thresholds.ConfidenceFor(name)
	}

	param := NewTemplateDetectParam(img, template.Mat(opts.Grayscale), threshold)
	rect, score, ok := p.templateDetector.Detect(param)
	if !ok {
		return image.Point{}, false
	}

	center := vision.ToGlobalPoint(region.Offset(), vision.GetCenter(*rect))
	log.Debug().Str("template", name).Float64("score", score).Int("x", center.X).Int("y", center.Y).Msg("[感知] 模板命中")
	return center, true
}

// DetectColorRegions 返回相对于 region 的外接矩形
func (p *Pipeline) DetectColorRegions(region vision.Region, colorName string) []image.Rectangle {
	frame, err := p.Frame(region)
	if err != nil {
		log.Debug().Err(err).Str("color", colorName).Msg("[感知] 截图失败")
		return nil
	}
	defer frame.Close()

	blobs := frame.Blobs(colorName)
	rects := make([]image.Rectangle, 0, len(blobs))
	for _, b := range blobs {
		rects = append(rects, b.Box)
	}
	return rects
}

// Frame 截图一次并转换为 HSV，供同一轮里的多个颜色查询复用
func (p *Pipeline) Frame(region vision.Region) (vision.Frame, error) {
	bgr, err := p.grabMat(region)
	if err != nil {
		return nil, err
	}
	defer bgr.Close()

	return &hsvFrame{pipeline: p, hsv: ToHSV(bgr)}, nil
}

// TemplateCount 成功加载的模板数量
func (p *Pipeline) TemplateCount() int {
	return p.templates.Len()
}

// Close 释放模板与截图资源，可重复调用
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		p.templates.Close()
		p.closeErr = p.source.Close()
		log.Info().Msg("[感知] 资源已释放")
	})
	return p.closeErr
}

func (p *Pipeline) colorRange(name string) (vision.ColorRange, bool) {
	cr, ok := p.colors[name]
	if !ok {
		p.warnOnce("color:"+name, "[感知] 未配置颜色范围: "+name)
		return vision.ColorRange{}, false
	}
	if !cr.Valid() {
		p.warnOnce("invalid:"+name, "[感知] 颜色范围下限大于上限: "+name)
		return vision.ColorRange{}, false
	}
	return cr, true
}

func (p *Pipeline) grabMat(region vision.Region) (gocv.Mat, error) {
	img, err := p.source.Grab(region)
	if err != nil {
		return gocv.Mat{}, err
	}

	mat, err := gocv.ImageToMatRGB(img) // 调用层必须要关闭，不然会内存泄露
	if err != nil {
		mat.Close()
		return gocv.Mat{}, err
	}
	return mat, nil
}

func (p *Pipeline) warnOnce(key string, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.warned[key] {
		return
	}
	p.warned[key] = true
	log.Warn().Msg(msg)
}

type hsvFrame struct {
	pipeline *Pipeline
	hsv      gocv.Mat
}

func (f *hsvFrame) Blobs(colorName string) []vision.Blob {
	cr, ok := f.pipeline.colorRange(colorName)
	if !ok {
		return nil
	}
	blobs, _ := f.pipeline.colorDetector.Detect(NewColorDetectParam(f.hsv, cr))
	return blobs
}

func (f *hsvFrame) Close() {
	f.hsv.Close()
}
