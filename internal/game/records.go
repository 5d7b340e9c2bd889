// internal/game/records.go
//
// Best-record bookkeeping per difficulty.
// Moves and time are compared independently: a session can improve one
// without the other. A nil field means nothing is stored yet.

package game

// BestRecord is the best moves and best time for one difficulty.
type BestRecord struct {
	Moves *int `json:"moves"`
	Time  *int `json:"time"`
}

// Improvement reports which fields a submission replaced.
type Improvement struct {
	Moves bool
	Time  bool
}

// Any is true when at least one field changed.
func (i Improvement) Any() bool { return i.Moves || i.Time }

// Records maps each difficulty to its best record.
type Records map[Difficulty]BestRecord

// NewRecords returns an empty record for every difficulty.
func NewRecords() Records {
	r := make(Records, len(settings))
	for _, d := range Difficulties() {
		r[d] = BestRecord{}
	}
	return r
}

// Get returns the record for d (empty if none).
func (r Records) Get(d Difficulty) BestRecord { return r[d] }

// Submit folds a completed session into the record for d.
func (r Records) Submit(d Difficulty, moves, seconds int) Improvement {
	rec := r[d]
	var imp Improvement
	if rec.Moves == nil || moves < *rec.Moves {
		rec.Moves = intPtr(moves)
		imp.Moves = true
	}
	if rec.Time == nil || seconds < *rec.Time {
		rec.Time = intPtr(seconds)
		imp.Time = true
	}
	if imp.Any() {
		r[d] = rec
	}
	return imp
}

// Merge keeps the better value of each field from other. It reports whether
// anything in r changed.
func (r Records) Merge(other Records) bool {
	changed := false
	for d, rec := range other {
		if !d.Valid() {
			continue
		}
		cur := r[d]
		if rec.Moves != nil && (cur.Moves == nil || *rec.Moves < *cur.Moves) {
			cur.Moves = intPtr(*rec.Moves)
			changed = true
		}
		if rec.Time != nil && (cur.Time == nil || *rec.Time < *cur.Time) {
			cur.Time = intPtr(*rec.Time)
			changed = true
		}
		r[d] = cur
	}
	return changed
}

// Clone deep-copies r.
func (r Records) Clone() Records {
	out := make(Records, len(r))
	for d, rec := range r {
		var c BestRecord
		if rec.Moves != nil {
			c.Moves = intPtr(*rec.Moves)
		}
		if rec.Time != nil {
			c.Time = intPtr(*rec.Time)
		}
		out[d] = c
	}
	return out
}

func intPtr(v int) *int { return &v }
