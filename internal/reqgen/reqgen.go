// Package reqgen tags outbound fetches with a generation so that only the
// response to the most recently issued request is applied.
package reqgen

import "sync/atomic"

// Token identifies one issued request
type Token uint64

// Counter issues monotonically increasing tokens. The zero value is ready to use.
type Counter struct {
	latest atomic.Uint64
}

// Next issues a new token, superseding every earlier one
func (c *Counter) Next() Token {
	return Token(c.latest.Add(1))
}

// IsLatest reports whether tok is the most recently issued token
func (c *Counter) IsLatest(tok Token) bool {
	return uint64(tok) == c.latest.Load()
}

// Latest returns the most recently issued token (0 before the first Next)
func (c *Counter) Latest() Token {
	return Token(c.latest.Load())
}

// Apply runs fn only when tok is still the latest and reports whether it ran.
// Callers hold their own state lock around Apply so the check and the write
// happen together.
func (c *Counter) Apply(tok Token, fn func()) bool {
	if !c.IsLatest(tok) {
		return false
	}
	fn()
	return true
}
