package bot

// State 会话内唯一的运行状态，只能通过 Engine.setState 改变
type State int

const (
	Idle State = iota
	Casting
	AwaitingBite
	InMinigame
	Clearing
	Stopped
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Casting:
		return "casting"
	case AwaitingBite:
		return "awaiting_bite"
	case InMinigame:
		return "in_minigame"
	case Clearing:
		return "clearing"
	case Stopped:
		return "stopped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
