package state

type RepeatMode uint8

const (
	RepeatNone RepeatMode = iota
	RepeatAll
	RepeatSingle
	repeatLen
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatNone:
		return "none"
	case RepeatAll:
		return "all"
	case RepeatSingle:
		return "single"
	default:
		return "unknown"
	}
}

// Cycle returns the next mode to be activated when the repeat button is
// constantly pressed.
func (m RepeatMode) Cycle() RepeatMode {
	return (m + 1) % repeatLen
}
