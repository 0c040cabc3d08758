package model

import "time"

const (
	// SyntheticQuestion heads an answer that arrived while no question was pending.
	SyntheticQuestion = "Candidate response"
	// NoAnswerPlaceholder closes a question superseded before it was answered.
	NoAnswerPlaceholder = "[no answer]"
	// InaudiblePlaceholder stands in for an empty transcript.
	InaudiblePlaceholder = "[inaudible]"

	EntryTypePostponed = "postponed"
)

type PostponeMode string

const (
	PostponeImmediate    PostponeMode = "immediate"
	PostponePickDateTime PostponeMode = "pick_datetime"
	PostponePickDate     PostponeMode = "pick_date"
)

func (m PostponeMode) Valid() bool {
	switch m {
	case PostponeImmediate, PostponePickDateTime, PostponePickDate:
		return true
	}
	return false
}

// PostponementMarker is the structured record appended when a session is postponed.
type PostponementMarker struct {
	Mode         PostponeMode `json:"mode"`
	ScheduledFor *time.Time   `json:"scheduled_for,omitempty"`
	NewExpiry    time.Time    `json:"new_expiry"`
	At           time.Time    `json:"at"`
}

// TurnEntry is one question/answer exchange, or a marker when Type is set.
type TurnEntry struct {
	Question     string              `json:"question"`
	Answer       string              `json:"answer"`
	Type         string              `json:"type,omitempty"`
	Postponement *PostponementMarker `json:"postponement,omitempty"`
}

func (e TurnEntry) IsMarker() bool { return e.Type != "" }

func (e TurnEntry) IsPending() bool { return !e.IsMarker() && e.Answer == "" }

// TurnLedger is the ordered question/answer log of a session.
// At most one entry is pending after PushQuestion, none after RecordAnswer.
type TurnLedger []TurnEntry

// PushQuestion appends a new unanswered question. A still-pending entry is
// closed with NoAnswerPlaceholder first.
func (l *TurnLedger) PushQuestion(q string) {
	if i := l.PendingIndex(); i >= 0 {
		(*l)[i].Answer = NoAnswerPlaceholder
	}
	*l = append(*l, TurnEntry{Question: q})
}

// RecordAnswer fills the most recent pending entry and returns its question.
// With nothing pending a synthetic entry is appended instead.
func (l *TurnLedger) RecordAnswer(text string) string {
	if text == "" {
		text = InaudiblePlaceholder
	}
	if i := l.PendingIndex(); i >= 0 {
		(*l)[i].Answer = text
		return (*l)[i].Question
	}
	*l = append(*l, TurnEntry{Question: SyntheticQuestion, Answer: text})
	return SyntheticQuestion
}

// PendingIndex scans from the end for an unanswered entry; -1 when none.
func (l TurnLedger) PendingIndex() int {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].IsPending() {
			return i
		}
	}
	return -1
}

func (l TurnLedger) Pending() (TurnEntry, bool) {
	if i := l.PendingIndex(); i >= 0 {
		return l[i], true
	}
	return TurnEntry{}, false
}

func (l TurnLedger) PendingCount() int {
	n := 0
	for _, e := range l {
		if e.IsPending() {
			n++
		}
	}
	return n
}

// Turns returns the question/answer entries without markers.
func (l TurnLedger) Turns() []TurnEntry {
	out := make([]TurnEntry, 0, len(l))
	for _, e := range l {
		if !e.IsMarker() {
			out = append(out, e)
		}
	}
	return out
}

func (l *TurnLedger) AppendPostponement(m PostponementMarker) {
	*l = append(*l, TurnEntry{Type: EntryTypePostponed, Postponement: &m})
}

func (l TurnLedger) Clone() TurnLedger {
	out := make(TurnLedger, len(l))
	copy(out, l)
	return out
}

// Asked reports whether q already appears as a question in the ledger.
func (l TurnLedger) Asked(q string) bool {
	for _, e := range l {
		if !e.IsMarker() && e.Question == q {
			return true
		}
	}
	return false
}
