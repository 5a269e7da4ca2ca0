// Package alert 会话异常结束时发出提示音
package alert

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog/log"
)

const (
	sampleRate = beep.SampleRate(44100)
	toneFreq   = 880
	toneLength = 200 * time.Millisecond
	gapLength  = 150 * time.Millisecond
	repeats    = 3
)

type Alert struct {
	enabled bool

	mu          sync.Mutex
	initialized bool
	initFunc    func() error
	playFunc    func(s beep.Streamer)
}

func New(enabled bool) *Alert {
	return &Alert{
		enabled: enabled,
		initFunc: func() error {
			return speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond))
		},
		playFunc: func(s beep.Streamer) { speaker.Play(s) },
	}
}

// Alarm 不阻塞调用方, 声卡不可用时只记录日志
func (a *Alert) Alarm() {
	if !a.enabled {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		if err := a.initFunc(); err != nil {
			log.Warn().Err(err).Msg("[提示音] 初始化音频失败")
			return
		}
		a.initialized = true
	}

	s, err := Pattern(sampleRate)
	if err != nil {
		log.Warn().Err(err).Msg("[提示音] 生成提示音失败")
		return
	}
	a.playFunc(s)
}

// Pattern 三声短促的提示音
func Pattern(sr beep.SampleRate) (beep.Streamer, error) {
	if sr <= 0 {
		return nil, fmt.Errorf("采样率无效: %d", sr)
	}

	var parts []beep.Streamer
	for i := range repeats {
		parts = append(parts, tone(sr, toneFreq, toneLength))
		if i < repeats-1 {
			parts = append(parts, tone(sr, 0, gapLength))
		}
	}
	return &effects.Volume{Streamer: beep.Seq(parts...), Base: 2, Volume: -2}, nil
}

// tone 定长正弦波, freq 为 0 时输出静音
func tone(sr beep.SampleRate, freq float64, d time.Duration) beep.Streamer {
	total := sr.N(d)
	pos := 0
	phase := 0.0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		n := 0
		for i := range samples {
			if pos >= total {
				break
			}
			v := math.Sin(2 * math.Pi * phase)
			samples[i][0] = v
			samples[i][1] = v
			phase += freq / float64(sr)
			phase -= math.Floor(phase)
			pos++
			n++
		}
		return n, true
	})
}
