// Package generation guards overlapping asynchronous fetches with
// monotonically increasing request tokens.
//
// Every fetch takes a Token before it starts. When it resolves, Commit
// applies its result only if no newer token has been committed yet, so a
// slow older response can never overwrite a newer one. An older response
// that resolves first is still applied and later replaced.
package generation

import "sync"

// Token identifies one issued request.
type Token uint64

// Gate issues tokens and arbitrates commits.
type Gate struct {
	mu      sync.Mutex
	issued  Token
	applied Token
}

// Issue returns a token newer than every token issued before.
func (g *Gate) Issue() Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued++
	return g.issued
}

// IssueAt issues a caller-chosen token, typically a state version taken
// together with the state it describes. Issuing an older token than one
// already issued is allowed; its commit then loses to the newer one.
func (g *Gate) IssueAt(tok Token) Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	if tok > g.issued {
		g.issued = tok
	}
	return tok
}

// Commit runs apply while holding the gate if tok is newer than the last
// committed token and reports whether it ran. apply must not call back into
// the gate.
func (g *Gate) Commit(tok Token, apply func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if tok <= g.applied {
		return false
	}
	g.applied = tok
	if apply != nil {
		apply()
	}
	return true
}

// Pending reports whether a request newer than the last commit is outstanding.
func (g *Gate) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.issued > g.applied
}

// Latest returns the last committed token.
func (g *Gate) Latest() Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.applied
}
