package bot

import (
	"time"

	"reel/internal/vision"

	"github.com/rs/zerolog/log"
)

const (
	ReasonTimeout = "timeout"
	ReasonStopped = "stopped"
)

type MinigameResult struct {
	Strikes  int
	Duration time.Duration
	Reason   string
}

// reactionState 跨轮次携带的计时状态
type reactionState struct {
	missingSince time.Time // 零值表示游标在场
	lastStrike   time.Time
	strikes      int
}

// playMinigame 小游戏循环，不做任何停顿，吞吐量决定反应延迟
// 游标连续消失超过 CursorTimeout 视为小游戏结束
func (e *Engine) playMinigame(region vision.Region) MinigameResult {
	e.logf("🎮 进入小游戏模式")

	start := e.clock.Now()
	st := reactionState{}
	for {
		if !e.stop.Running() {
			return MinigameResult{Strikes: st.strikes, Duration: e.clock.Now().Sub(start), Reason: ReasonStopped}
		}

		if done := e.reactionTick(region, &st); done {
			e.logf("🏁 小游戏结束 (游标消失)")
			return MinigameResult{Strikes: st.strikes, Duration: e.clock.Now().Sub(start), Reason: ReasonTimeout}
		}
	}
}

// reactionTick 返回 true 表示游标消失超时
func (e *Engine) reactionTick(region vision.Region, st *reactionState) bool {
	// 截图与 HSV 转换每轮只做一次，游标和色带共用
	frame, err := e.vision.Frame(region)
	if err != nil {
		log.Debug().Err(err).Msg("[钓鱼] 小游戏截图失败")
	}
	if frame != nil {
		defer frame.Close()
	}

	var cursor vision.Blob
	present := false
	if frame != nil {
		cursor, present = vision.LargestBlob(frame.Blobs(e.cfg.CursorColor))
	}

	now := e.clock.Now()
	if !present {
		if st.missingSince.IsZero() {
			st.missingSince = now
		} else if now.Sub(st.missingSince) > e.cfg.CursorTimeout {
			return true
		}
		return false
	}
	st.missingSince = time.Time{}

	if now.Sub(st.lastStrike) <= e.cfg.HitCooldown {
		return false
	}

	bands := frame.Blobs(e.cfg.TargetColor)
	if !vision.InBand(vision.CenterX(cursor.Box), bands) {
		return false
	}

	hold := e.human.StrikeHold()
	e.hold(e.cfg.Keys.Strike, hold)
	st.lastStrike = e.clock.Now()
	st.strikes++
	e.stats.Strikes++
	e.logf("⚡️ HIT! (dur: %.3fs)", hold.Seconds())
	return false
}
