// internal/palette/palette.go
//
// Card symbol palette management.
//
// Responsibilities:
//   - Load the palette from a file (PALETTE_FILE) or fall back to the embedded default.
//   - Normalise: trim, drop blanks/comments, drop duplicates keeping the first.
//   - Guarantee enough symbols for the largest board.
//
// Boards take a prefix of the palette, so the order of the file is the order
// symbols are introduced as difficulty grows.

package palette

import (
	"fmt"
	"os"

	"github.com/robalobadob/concentration/assets"
	"github.com/robalobadob/concentration/internal/game"
)

// Load reads the palette at path, or the embedded default when path is empty.
func Load(path string) ([]string, error) {
	var (
		lines []string
		err   error
	)
	if path == "" {
		lines, err = assets.PaletteList()
	} else {
		lines, err = readFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}
	return validate(lines)
}

func readFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return assets.ReadLines(f)
}

// validate dedupes lines and checks the palette covers every difficulty.
func validate(lines []string) ([]string, error) {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, s := range lines {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if need := game.MaxPairs(); len(out) < need {
		return nil, fmt.Errorf("palette: %d distinct symbols, need at least %d", len(out), need)
	}
	return out, nil
}
