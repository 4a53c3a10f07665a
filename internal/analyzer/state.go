package analyzer

// State is a step of the pipeline state machine:
//
//	Idle -> Walking <-> Scoring -> Done
//	                 \-> Failed
type State int

const (
	StateIdle State = iota
	StateWalking
	StateScoring
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:    "idle",
	StateWalking: "walking",
	StateScoring: "scoring",
	StateDone:    "done",
	StateFailed:  "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transitions are possible
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
