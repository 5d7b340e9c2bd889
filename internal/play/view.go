// internal/play/view.go
//
// View is the JSON snapshot a Table hands to the HTTP layer.
// Responsibilities:
//   - Fold render effects (layout, card changes, preview, stats, best, completion).
//   - Hide the symbol of every face-down card outside the preview.

package play

import (
	"strconv"

	"github.com/robalobadob/concentration/internal/game"
)

// View is what the browser renders. Face-down cards carry no symbol.
type View struct {
	TableID      string          `json:"tableId"`
	Tag          string          `json:"tag,omitempty"`
	Difficulty   game.Difficulty `json:"difficulty"`
	Rows         int             `json:"rows"`
	Cols         int             `json:"cols"`
	Phase        string          `json:"phase"`
	Clock        string          `json:"clock"`
	Preview      bool            `json:"preview"`
	InputEnabled bool            `json:"inputEnabled"`
	Cards        []CardView      `json:"cards"`
	Moves        int             `json:"moves"`
	MatchedPairs int             `json:"matchedPairs"`
	Elapsed      int             `json:"elapsed"`
	ElapsedText  string          `json:"elapsedText"`
	Best         BestView        `json:"best"`
	Completion   *Completion     `json:"completion,omitempty"`
}

// CardView is one rendered card.
type CardView struct {
	Index   int    `json:"index"`
	Symbol  string `json:"symbol,omitempty"`
	Flipped bool   `json:"flipped"`
	Matched bool   `json:"matched"`
}

// BestView is the best record of the active difficulty, with "-" for
// nothing stored.
type BestView struct {
	Moves     *int   `json:"moves"`
	Time      *int   `json:"time"`
	MovesText string `json:"movesText"`
	TimeText  string `json:"timeText"`
}

// Completion is the payload of the end-of-game dialog.
type Completion struct {
	Moves        int    `json:"moves"`
	Elapsed      int    `json:"elapsed"`
	ElapsedText  string `json:"elapsedText"`
	NewBestMoves bool   `json:"newBestMoves"`
	NewBestTime  bool   `json:"newBestTime"`
}

// viewState accumulates render effects.
type viewState struct {
	difficulty   game.Difficulty
	rows, cols   int
	cards        []game.CardView
	preview      bool
	inputEnabled bool
	stats        game.Stats
	best         game.BestRecord
	completion   *Completion
}

func (v *viewState) apply(e game.Effect) {
	switch e := e.(type) {
	case game.Layout:
		v.difficulty, v.rows, v.cols = e.Difficulty, e.Rows, e.Cols
		v.cards = append(v.cards[:0], e.Cards...)
		v.inputEnabled = false
	case game.CardChanged:
		if e.Index >= 0 && e.Index < len(v.cards) {
			v.cards[e.Index] = e.View
		}
	case game.Preview:
		v.preview = e.Visible
		v.inputEnabled = e.InputEnabled
	case game.Stats:
		v.stats = e
	case game.Best:
		if e.Difficulty == v.difficulty {
			v.best = e.Record
		}
	case game.Completed:
		v.inputEnabled = false
		v.completion = &Completion{
			Moves:        e.Moves,
			Elapsed:      e.Elapsed,
			ElapsedText:  e.ElapsedText,
			NewBestMoves: e.NewBestMoves,
			NewBestTime:  e.NewBestTime,
		}
	}
}

func (v *viewState) render() View {
	cards := make([]CardView, len(v.cards))
	for i, c := range v.cards {
		cards[i] = CardView{Index: c.Index, Flipped: c.Flipped, Matched: c.Matched}
		if v.preview || c.Flipped || c.Matched {
			cards[i].Symbol = c.Symbol
		}
	}
	out := View{
		Difficulty:   v.difficulty,
		Rows:         v.rows,
		Cols:         v.cols,
		Preview:      v.preview,
		InputEnabled: v.inputEnabled,
		Cards:        cards,
		Moves:        v.stats.Moves,
		MatchedPairs: v.stats.MatchedPairs,
		Elapsed:      v.stats.Elapsed,
		ElapsedText:  v.stats.ElapsedText,
		Best:         bestView(v.best),
	}
	if v.completion != nil {
		c := *v.completion
		out.Completion = &c
	}
	return out
}

func bestView(r game.BestRecord) BestView {
	b := BestView{Moves: r.Moves, Time: r.Time, MovesText: "-", TimeText: "-"}
	if r.Moves != nil {
		b.MovesText = strconv.Itoa(*r.Moves)
	}
	if r.Time != nil {
		b.TimeText = game.FormatElapsed(*r.Time)
	}
	return b
}
