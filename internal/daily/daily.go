package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"time"

	"github.com/robalobadob/concentration/internal/game"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns a deterministic shuffle seed for a date and difficulty using
// HMAC(salt, "YYYY-MM-DD|difficulty"). Every player gets the same board.
func Seed(date time.Time, salt string, d game.Difficulty) int64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date) + "|" + string(d)))
	sum := h.Sum(nil)
	// first 8 bytes are plenty for a PRNG seed
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// Rand returns the shuffle source for the daily board.
func Rand(date time.Time, salt string, d game.Difficulty) *rand.Rand {
	return rand.New(rand.NewSource(Seed(date, salt, d)))
}
