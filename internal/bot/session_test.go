package bot

import (
	"errors"
	"image"
	"reflect"
	"testing"
	"time"

	"reel/internal/vision"
)

type panicVision struct{}

func (panicVision) MatchTemplate(string, vision.MatchOptions) (image.Point, bool) {
	panic("boom")
}

func (panicVision) Frame(vision.Region) (vision.Frame, error) {
	return nil, errors.New("unused")
}

type fakeWindow struct{ found bool }

func (w fakeWindow) BringToFront() bool { return w.found }

type fakeAlerter struct{ calls int }

func (a *fakeAlerter) Alarm() { a.calls++ }

type fakeHistory struct {
	started  int
	cycles   []CycleRecord
	finished []SessionSummary
}

func (h *fakeHistory) StartSession(time.Time) (int64, error) {
	h.started++
	return 7, nil
}

func (h *fakeHistory) RecordCycle(id int64, rec CycleRecord) error {
	h.cycles = append(h.cycles, rec)
	return nil
}

func (h *fakeHistory) FinishSession(id int64, summary SessionSummary) error {
	h.finished = append(h.finished, summary)
	return nil
}

func sessionOptions(h *harness, perceiver Perceiver) SessionOptions {
	return SessionOptions{
		Config:    h.cfg,
		Humanizer: quietHumanizer(),
		Acquire: func() (*Resources, error) {
			h.rec.add("acquire")
			return &Resources{
				Perceiver: perceiver,
				Input:     h.input,
				Release:   func() error { h.rec.add("release"); return nil },
			}, nil
		},
		Notifier: h.notify,
		NewClock: func(<-chan struct{}) Clock { return h.clock },
	}
}

func waitSession(t *testing.T, s *Session) error {
	t.Helper()
	select {
	case <-s.Done():
		return s.Err()
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
		return nil
	}
}

func TestSessionPanicReleasesBeforeFinish(t *testing.T) {
	h := newHarness()
	alerter := &fakeAlerter{}
	opts := sessionOptions(h, panicVision{})
	opts.Alerter = alerter
	s := NewSession(opts)

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := waitSession(t, s); err == nil {
		t.Fatalf("expected panic to surface as error")
	}

	want := []string{"acquire", "release_all", "release", "status:failed", "finished"}
	if got := h.rec.list(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if s.Summary().Status != Failed {
		t.Errorf("status = %v, want failed", s.Summary().Status)
	}
	if alerter.calls != 1 {
		t.Errorf("alarm calls = %d, want 1", alerter.calls)
	}
}

func TestSessionAcquireError(t *testing.T) {
	h := newHarness()
	opts := sessionOptions(h, nil)
	boom := errors.New("no templates")
	opts.Acquire = func() (*Resources, error) { return nil, boom }
	s := NewSession(opts)

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	err := waitSession(t, s)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if got, want := h.rec.list(), []string{"status:failed", "finished"}; !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestSessionWindowNotFound(t *testing.T) {
	h := newHarness()
	opts := sessionOptions(h, h.vision)
	opts.Window = fakeWindow{found: false}
	s := NewSession(opts)

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := waitSession(t, s); !errors.Is(err, ErrWindowNotFound) {
		t.Fatalf("err = %v, want ErrWindowNotFound", err)
	}
	if h.rec.count("acquire") != 0 {
		t.Errorf("resources should not be acquired without a window")
	}
}

func TestSessionStop(t *testing.T) {
	h := newHarness()
	history := &fakeHistory{}
	opts := sessionOptions(h, h.vision)
	opts.Window = fakeWindow{found: true}
	opts.History = history
	s := NewSession(opts)

	s.Stop()
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	want := []string{"acquire", "release_all", "release", "status:stopped", "finished"}
	if got := h.rec.list(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if history.started != 1 || len(history.finished) != 1 || history.finished[0].Status != Stopped {
		t.Errorf("history = %+v", history)
	}
	if err := s.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second start err = %v, want ErrAlreadyStarted", err)
	}
}

func TestSessionClearingFailure(t *testing.T) {
	h := newHarness()
	h.vision.matches[TemplateFullWarning] = image.Pt(0, 0)
	alerter := &fakeAlerter{}
	history := &fakeHistory{}
	opts := sessionOptions(h, h.vision)
	opts.Alerter = alerter
	opts.History = history
	s := NewSession(opts)

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := waitSession(t, s); !errors.Is(err, ErrClearingFailed) {
		t.Fatalf("err = %v, want ErrClearingFailed", err)
	}
	if s.Summary().Status != Failed || alerter.calls != 1 {
		t.Errorf("status = %v alarms = %d", s.Summary().Status, alerter.calls)
	}
	if len(history.finished) != 1 || history.finished[0].Status != Failed {
		t.Errorf("history = %+v", history.finished)
	}
}

func TestSessionRecordsCycles(t *testing.T) {
	h := newHarness()
	h.cfg.MinigameRegion = vision.Region{}
	h.vision.matches[TemplateBite] = image.Pt(0, 0)
	history := &fakeHistory{}
	opts := sessionOptions(h, h.vision)
	opts.History = history

	var s *Session
	opts.NewClock = func(<-chan struct{}) Clock { return &stoppingClock{fakeClock: h.clock, after: 1, stop: func() { s.Stop() }} }
	s = NewSession(opts)

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := waitSession(t, s); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(history.cycles) == 0 || !history.cycles[0].Skipped {
		t.Errorf("cycles = %+v", history.cycles)
	}
}

// stoppingClock 在若干次 Now 调用后请求停止
type stoppingClock struct {
	*fakeClock
	after int
	calls int
	stop  func()
}

func (c *stoppingClock) Now() time.Time {
	c.calls++
	if c.calls > c.after {
		c.stop()
	}
	return c.fakeClock.Now()
}

type panicWindow struct{}

func (panicWindow) BringToFront() bool { panic("window lookup failed") }

func TestSessionAcquirePanic(t *testing.T) {
	h := newHarness()
	alerter := &fakeAlerter{}
	history := &fakeHistory{}
	opts := sessionOptions(h, nil)
	opts.Acquire = func() (*Resources, error) { panic("gocv init failed") }
	opts.Alerter = alerter
	opts.History = history
	s := NewSession(opts)

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := waitSession(t, s); err == nil {
		t.Fatal("expected acquire panic to surface as error")
	}

	if got, want := h.rec.list(), []string{"status:failed", "finished"}; !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if s.Summary().Status != Failed {
		t.Errorf("status = %v, want failed", s.Summary().Status)
	}
	if alerter.calls != 1 {
		t.Errorf("alarm calls = %d, want 1", alerter.calls)
	}
	if len(history.finished) != 1 || history.finished[0].Status != Failed {
		t.Errorf("history = %+v", history.finished)
	}
}

func TestSessionWindowPanic(t *testing.T) {
	h := newHarness()
	opts := sessionOptions(h, h.vision)
	opts.Window = panicWindow{}
	s := NewSession(opts)

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := waitSession(t, s); err == nil {
		t.Fatal("expected window panic to surface as error")
	}
	if got, want := h.rec.list(), []string{"status:failed", "finished"}; !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}
