package pacer

import "context"

// TokenDispenser limits how many transfers run at once
//
// Each transfer takes a token with Get before starting and hands it
// back with Put when done.
type TokenDispenser struct {
	tokens chan struct{}
}

// NewTokenDispenser makes a pool of n tokens, at least one
func NewTokenDispenser(n int) *TokenDispenser {
	if n < 1 {
		n = 1
	}
	td := &TokenDispenser{
		tokens: make(chan struct{}, n),
	}
	for i := 0; i < n; i++ {
		td.tokens <- struct{}{}
	}
	return td
}

// Get waits for a free token. It returns the context error without
// taking a token if ctx is done first, in which case Put must not be
// called.
func (td *TokenDispenser) Get(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-td.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Put returns a token
func (td *TokenDispenser) Put() {
	td.tokens <- struct{}{}
}
