package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var supported = []language.Tag{language.SimplifiedChinese, language.English}

var statusText = map[language.Tag]map[string]string{
	language.SimplifiedChinese: {
		"idle":          "空闲",
		"casting":       "抛竿中",
		"awaiting_bite": "等待咬钩",
		"in_minigame":   "小游戏中",
		"clearing":      "清理背包",
		"stopped":       "已停止",
		"failed":        "运行失败",
		"finished":      "会话已结束, 按F9重新开始",
	},
	language.English: {
		"idle":          "Idle",
		"casting":       "Casting",
		"awaiting_bite": "Waiting for a bite",
		"in_minigame":   "In minigame",
		"clearing":      "Clearing inventory",
		"stopped":       "Stopped",
		"failed":        "Failed",
		"finished":      "Session finished, press F9 to start again",
	},
}

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.SimplifiedChinese))
	for tag, texts := range statusText {
		for key, text := range texts {
			b.SetString(tag, key, text)
		}
	}
	return b
}

// MatchLanguage 不支持的语言回退到简体中文
func MatchLanguage(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return supported[0]
	}
	_, idx, conf := language.NewMatcher(supported).Match(tag)
	if conf == language.No {
		return supported[0]
	}
	return supported[idx]
}

// Console 把通知打印到控制台, 状态文本按语言本地化
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	printer *message.Printer
	now     func() time.Time
}

func NewConsole(out io.Writer, lang string) *Console {
	return &Console{
		out:     out,
		printer: message.NewPrinter(MatchLanguage(lang), message.Catalog(newCatalog())),
		now:     time.Now,
	}
}

func (c *Console) OnLog(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s\n", c.now().Format("15:04:05"), text)
}

func (c *Console) OnStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "[状态] %s\n", c.Status(status))
}

func (c *Console) OnFinished() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "[状态] %s\n\n", c.Status("finished"))
}

// Status 未登记的状态原样返回
func (c *Console) Status(status string) string {
	return c.printer.Sprintf(message.Key(status, status))
}
