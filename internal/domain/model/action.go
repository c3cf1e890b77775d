package model

// Action is one of the fixed teaching actions the policy can recommend.
type Action int

const (
	ActionRepeatEasier Action = iota
	ActionAdvanceHarder
	ActionSwitchTopic
	ActionEncourage
	ActionEndSession
)

// NumActions is the size of the action space.
const NumActions = 5

// DefaultAction is returned for students with no history yet.
const DefaultAction = ActionRepeatEasier

// String returns the snake_case name of the action.
func (a Action) String() string {
	switch a {
	case ActionRepeatEasier:
		return "repeat_easier"
	case ActionAdvanceHarder:
		return "advance_harder"
	case ActionSwitchTopic:
		return "switch_topic"
	case ActionEncourage:
		return "encourage"
	case ActionEndSession:
		return "end_session"
	default:
		return "unknown"
	}
}

// Valid reports whether a falls inside the action space.
func (a Action) Valid() bool {
	return a >= 0 && a < NumActions
}
