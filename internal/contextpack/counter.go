package contextpack

import "fmt"

// Counter is the token oracle. Implementations must be deterministic for a
// given text and safe for concurrent use.
type Counter interface {
	Count(text string) (int, error)
}

// CounterFunc adapts a plain function to Counter.
type CounterFunc func(text string) (int, error)

// Count calls f(text).
func (f CounterFunc) Count(text string) (int, error) { return f(text) }

// countText queries the counter and rejects negative results.
func countText(counter Counter, text string) (int, error) {
	n, err := counter.Count(text)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeCount, n)
	}
	return n, nil
}
