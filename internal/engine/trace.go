package engine

import (
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator produces the correlation token attached to every log line
// written while one event is handled.
type TokenGenerator interface {
	Generate() string
}

// TokenFunc adapts a plain function to TokenGenerator.
type TokenFunc func() string

// Generate calls f.
func (f TokenFunc) Generate() string { return f() }

// UUIDv7Generator produces time-ordered UUIDv7 tokens, so sorting trace
// tokens also sorts events by arrival time.
type UUIDv7Generator struct{}

// Generate panics only if the system random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewFixedGenerator hands out tokens in order. It panics once they run
// out, so a test that dispatches more events than planned fails loudly.
func NewFixedGenerator(tokens ...string) TokenGenerator {
	var mu sync.Mutex
	return TokenFunc(func() string {
		mu.Lock()
		defer mu.Unlock()
		if len(tokens) == 0 {
			panic("engine: fixed trace tokens exhausted")
		}
		next := tokens[0]
		tokens = tokens[1:]
		return next
	})
}
