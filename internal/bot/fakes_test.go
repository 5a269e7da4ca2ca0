package bot

import (
	"fmt"
	"image"
	"sync"
	"time"

	"reel/internal/humanize"
	"reel/internal/vision"
)

var (
	cursorBlob = vision.Blob{Box: image.Rect(40, 0, 50, 10), Area: 81}
	bandBlob   = vision.Blob{Box: image.Rect(30, 0, 60, 10), Area: 261}
	farBand    = vision.Blob{Box: image.Rect(100, 0, 120, 10), Area: 171}
)

type fakeClock struct {
	now   time.Time
	slept []time.Duration
	held  []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) Hold(d time.Duration) {
	c.held = append(c.held, d)
	c.now = c.now.Add(d)
}

type fakeFrame struct {
	blobs  map[string][]vision.Blob
	closed *int
}

func (f *fakeFrame) Blobs(name string) []vision.Blob { return f.blobs[name] }
func (f *fakeFrame) Close()                          { *f.closed++ }

// fakeVision 每次 Frame 调用让时钟前进 step, 脚本帧用完后调用 onExhausted 并返回空帧
type fakeVision struct {
	clock *fakeClock
	step  time.Duration

	matches    map[string]image.Point
	matchCalls []string
	matchOpts  map[string]vision.MatchOptions

	frames      []map[string][]vision.Blob
	frameErr    error
	frameCalls  int
	closed      int
	onExhausted func()
}

func newFakeVision(clock *fakeClock) *fakeVision {
	return &fakeVision{
		clock:     clock,
		step:      100 * time.Millisecond,
		matches:   map[string]image.Point{},
		matchOpts: map[string]vision.MatchOptions{},
	}
}

func (v *fakeVision) MatchTemplate(name string, opts vision.MatchOptions) (image.Point, bool) {
	v.matchCalls = append(v.matchCalls, name)
	v.matchOpts[name] = opts
	p, ok := v.matches[name]
	return p, ok
}

func (v *fakeVision) Frame(region vision.Region) (vision.Frame, error) {
	i := v.frameCalls
	v.frameCalls++
	v.clock.now = v.clock.now.Add(v.step)
	if v.frameErr != nil {
		return nil, v.frameErr
	}
	if i < len(v.frames) {
		return &fakeFrame{blobs: v.frames[i], closed: &v.closed}, nil
	}
	if v.onExhausted != nil {
		v.onExhausted()
	}
	return &fakeFrame{closed: &v.closed}, nil
}

func repeatFrames(n int, blobs map[string][]vision.Blob) []map[string][]vision.Blob {
	frames := make([]map[string][]vision.Blob, n)
	for i := range frames {
		frames[i] = blobs
	}
	return frames
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) count(event string) int {
	n := 0
	for _, e := range r.list() {
		if e == event {
			n++
		}
	}
	return n
}

type fakeInput struct {
	rec *recorder
}

func (in *fakeInput) KeyDown(key string) error { in.rec.add("down:%s", key); return nil }
func (in *fakeInput) KeyUp(key string) error   { in.rec.add("up:%s", key); return nil }
func (in *fakeInput) Click(x, y int) error     { in.rec.add("click:%d,%d", x, y); return nil }
func (in *fakeInput) ReleaseAll()              { in.rec.add("release_all") }

type fakeNotifier struct {
	rec  *recorder
	logs []string
}

func (n *fakeNotifier) OnLog(text string) {
	n.rec.mu.Lock()
	n.logs = append(n.logs, text)
	n.rec.mu.Unlock()
}
func (n *fakeNotifier) OnStatus(text string) { n.rec.add("status:%s", text) }
func (n *fakeNotifier) OnFinished()          { n.rec.add("finished") }

func (n *fakeNotifier) statuses() []string {
	var out []string
	for _, e := range n.rec.list() {
		if len(e) > 7 && e[:7] == "status:" {
			out = append(out, e[7:])
		}
	}
	return out
}

// 关闭随机扰动, 所有按压时长为 0
func quietHumanizer() *humanize.Humanizer {
	return humanize.New(humanize.Profile{})
}

type harness struct {
	cfg    Config
	clock  *fakeClock
	vision *fakeVision
	rec    *recorder
	input  *fakeInput
	notify *fakeNotifier
	stop   *StopFlag
}

func newHarness() *harness {
	clock := newFakeClock()
	rec := &recorder{}
	cfg := DefaultConfig()
	cfg.MinigameRegion = vision.NewRegion(100, 200, 300, 40)
	return &harness{
		cfg:    cfg,
		clock:  clock,
		vision: newFakeVision(clock),
		rec:    rec,
		input:  &fakeInput{rec: rec},
		notify: &fakeNotifier{rec: rec},
		stop:   NewStopFlag(),
	}
}

func (h *harness) engine() *Engine {
	return NewEngine(h.cfg, h.vision, h.input, quietHumanizer(), h.clock, h.notify, h.stop)
}
