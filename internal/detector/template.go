package detector

import (
	"image"
	"os"
	"path/filepath"

	"reel/internal/vision"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
)

// Template 预加载的参考图 (BGR)，灰度版本在加载时一并生成
type Template struct {
	Name  string
	Color gocv.Mat
	Gray  gocv.Mat
}

func (t *Template) Mat(grayscale bool) gocv.Mat {
	if grayscale {
		return t.Gray
	}
	return t.Color
}

// TemplateStore 在会话期间持有全部模板，结束时统一释放
type TemplateStore struct {
	templates map[string]*Template
}

func NewTemplateStore() *TemplateStore {
	return &TemplateStore{templates: make(map[string]*Template)}
}

// LoadTemplates 按 名称 -> 文件名 的映射从目录读取模板，读取失败的只记录日志
func LoadTemplates(templateDir string, files map[string]string) *TemplateStore {
	s := NewTemplateStore()
	for name, file := range files {
		path := filepath.Join(templateDir, file)
		if _, err := os.Stat(path); err != nil {
			log.Warn().Str("template", name).Str("path", path).Msg("[匹配器] 图片模板文件不存在")
			continue
		}

		// IMReadColor 会丢弃透明通道，得到三通道 BGR
		img := gocv.IMRead(path, gocv.IMReadColor)
		if img.Empty() {
			img.Close()
			log.Warn().Str("template", name).Str("path", path).Msg("[匹配器] 无法解码图片模板")
			continue
		}
		s.Add(name, img)
	}
	log.Info().Int("count", s.Len()).Str("dir", templateDir).Msg("[匹配器] 图片模板加载完成")
	return s
}

// Add 接管 img 的所有权
func (s *TemplateStore) Add(name string, img gocv.Mat) {
	if old, ok := s.templates[name]; ok {
		old.Color.Close()
		old.Gray.Close()
	}

	gray := gocv.NewMat()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	s.templates[name] = &Template{Name: name, Color: img, Gray: gray}
}

func (s *TemplateStore) Get(name string) (*Template, bool) {
	t, ok := s.templates[name]
	return t, ok
}

func (s *TemplateStore) Len() int {
	return len(s.templates)
}

func (s *TemplateStore) Close() {
	for name, t := range s.templates {
		t.Color.Close()
		t.Gray.Close()
		delete(s.templates, name)
	}
}

type TemplateDetectParam struct {
	Img            gocv.Mat
	Template       gocv.Mat
	ScoreThreshold float64
}

type TemplateDetector interface {
	Detect(param *TemplateDetectParam) (*image.Rectangle, float64, bool)
}

type TemplateDetectorImpl struct{}

func NewTemplateDetector() TemplateDetector {
	return &TemplateDetectorImpl{}
}

func NewTemplateDetectParam(img gocv.Mat, template gocv.Mat, scoreThreshold float64) *TemplateDetectParam {
	return &TemplateDetectParam{
		Img:            img,
		Template:       template,
		ScoreThreshold: scoreThreshold,
	}
}

// Detect 归一化相关系数匹配，最高分达到阈值时返回匹配区域 (相对于 Img)
func (d *TemplateDetectorImpl) Detect(param *TemplateDetectParam) (*image.Rectangle, float64, bool) {
	img := param.Img
	template := param.Template

	if img.Empty() || template.Empty() {
		return nil, 0, false
	}
	if template.Cols() > img.Cols() || template.Rows() > img.Rows() {
		return nil, 0, false
	}
	if img.Channels() != template.Channels() {
		return nil, 0, false
	}

	result := gocv.NewMat()
	defer result.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(img, template, &result, gocv.TmCcoeffNormed, mask)

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)
	score := float64(maxVal)
	if !vision.Accept(score, param.ScoreThreshold) {
		return nil, score, false
	}

	rect := image.Rect(
		maxLoc.X,
		maxLoc.Y,
		maxLoc.X+template.Cols(),
		maxLoc.Y+template.Rows(),
	)
	return &rect, score, true
}
