package narrative

import (
	"context"
	"time"
)

// Typer reveals text one character at a time. A zero Delay disables the
// effect: the full text is emitted once.
type Typer struct {
	Delay time.Duration
}

// Stream calls emit with a growing prefix of text until the whole text has
// been emitted. It stops early when ctx is cancelled or emit fails.
func (t Typer) Stream(ctx context.Context, text string, emit func(string) error) error {
	if t.Delay <= 0 {
		return emit(text)
	}

	ticker := time.NewTicker(t.Delay)
	defer ticker.Stop()

	runes := []rune(text)
	for i := 1; i <= len(runes); i++ {
		if err := emit(string(runes[:i])); err != nil {
			return err
		}
		if i == len(runes) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
