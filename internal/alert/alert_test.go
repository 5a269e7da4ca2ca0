package alert

import (
	"errors"
	"testing"

	"github.com/gopxl/beep"
)

func drain(s beep.Streamer) int {
	buf := make([][2]float64, 512)
	total := 0
	for {
		n, ok := s.Stream(buf)
		total += n
		if !ok {
			return total
		}
	}
}

func TestPatternLength(t *testing.T) {
	sr := beep.SampleRate(8000)
	s, err := Pattern(sr)
	if err != nil {
		t.Fatalf("pattern: %v", err)
	}

	want := repeats*sr.N(toneLength) + (repeats-1)*sr.N(gapLength)
	if got := drain(s); got != want {
		t.Errorf("samples = %d, want %d", got, want)
	}
}

func TestPatternInvalidRate(t *testing.T) {
	if _, err := Pattern(0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestAlarm(t *testing.T) {
	newAlert := func(enabled bool, initErr error) (*Alert, *int, *int) {
		inits, plays := 0, 0
		a := New(enabled)
		a.initFunc = func() error { inits++; return initErr }
		a.playFunc = func(beep.Streamer) { plays++ }
		return a, &inits, &plays
	}

	a, inits, plays := newAlert(false, nil)
	a.Alarm()
	if *inits != 0 || *plays != 0 {
		t.Errorf("disabled alert: inits = %d plays = %d", *inits, *plays)
	}

	a, inits, plays = newAlert(true, nil)
	a.Alarm()
	a.Alarm()
	if *inits != 1 || *plays != 2 {
		t.Errorf("enabled alert: inits = %d plays = %d", *inits, *plays)
	}

	a, _, plays = newAlert(true, errors.New("no audio device"))
	a.Alarm()
	if *plays != 0 {
		t.Errorf("alert without device should not play")
	}
}
