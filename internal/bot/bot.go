package bot

import (
	"errors"
	"math/rand/v2"
	"sync"
)

//go:generate mockgen -destination=mock_bot/mock_bot.go -package=mock_bot ctchen222/TimeTravel-Tic-Tac-Toe/internal/bot MoveChooser

var ErrNoLegalMoves = errors.New("no legal moves left")

// MoveChooser picks the automated opponent's next cell among the legal ones.
type MoveChooser interface {
	ChooseMove(legal []int) (int, error)
}

// RandomChooser picks uniformly at random among the legal moves.
// It is safe for concurrent use.
type RandomChooser struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomChooser creates a chooser backed by the global random source.
func NewRandomChooser() *RandomChooser {
	return &RandomChooser{}
}

// NewSeededChooser creates a chooser with its own source, for reproducible games.
func NewSeededChooser(src rand.Source) *RandomChooser {
	return &RandomChooser{rng: rand.New(src)}
}

// ChooseMove implements MoveChooser.
func (c *RandomChooser) ChooseMove(legal []int) (int, error) {
	if len(legal) == 0 {
		return -1, ErrNoLegalMoves
	}
	return legal[c.intN(len(legal))], nil
}

func (c *RandomChooser) intN(n int) int {
	if c.rng == nil {
		return rand.IntN(n)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.IntN(n)
}
