package refnum

import (
	"context"
	"fmt"
	"sync"
	"time"

	"suratdesa/internal/letter/models"
)

// InMemoryGenerator counts sequences in process memory. Development and
// test use only: numbers are not unique across instances or restarts.
type InMemoryGenerator struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func NewInMemoryGenerator() *InMemoryGenerator {
	return &InMemoryGenerator{seqs: make(map[string]int64)}
}

func (g *InMemoryGenerator) Next(_ context.Context, letterType models.LetterType, effectiveDate time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := fmt.Sprintf("%s:%d", letterType.ID, effectiveDate.Year())
	g.seqs[key]++
	return Format(letterType.Code, g.seqs[key], effectiveDate), nil
}
