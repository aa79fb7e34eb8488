package entity

type OutcomeKind string

const (
	OutcomeOngoing OutcomeKind = "ongoing"
	OutcomeWin     OutcomeKind = "win"
	OutcomeDraw    OutcomeKind = "draw"
)

// WinnerDraw is what clients receive as the winner of a drawn match.
const WinnerDraw = "draw"

type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Winner Symbol      `json:"winner,omitempty"`
	Line   []int       `json:"line,omitempty"`
}

func (that Outcome) IsTerminal() bool {
	return that.Kind == OutcomeWin || that.Kind == OutcomeDraw
}

// WinnerLabel renders the outcome for the match-finished event.
func (that Outcome) WinnerLabel() string {
	switch that.Kind {
	case OutcomeWin:
		return string(that.Winner)
	case OutcomeDraw:
		return WinnerDraw
	default:
		return ""
	}
}

func (that Outcome) clone() Outcome {
	if that.Line != nil {
		that.Line = append([]int(nil), that.Line...)
	}

	return that
}
