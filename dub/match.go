package dub

// Note numbers a match expression can select.
const (
	MinNote = 0
	MaxNote = 127
)

type matcher interface {
	match(i int) bool
}

type rangeMatch struct {
	start, end int
}

func (r rangeMatch) match(i int) bool {
	return (i >= r.start || r.start == -1) && (i <= r.end || r.end == -1)
}

var matchAll = rangeMatch{-1, -1}

type listMatch []int

func (l listMatch) match(i int) bool {
	for _, k := range l {
		if k == i {
			return true
		}
	}
	return false
}

// Match reports whether any item of the expression selects note.
func (m MatchExpr) Match(note int) bool {
	for _, item := range m.matchers {
		if item.match(note) {
			return true
		}
	}
	return false
}

// Notes returns the selected notes in ascending order.
func (m MatchExpr) Notes() []int {
	var notes []int
	for n := MinNote; n <= MaxNote; n++ {
		if m.Match(n) {
			notes = append(notes, n)
		}
	}
	return notes
}
