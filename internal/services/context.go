package services

import "context"

// Scope names the unit of work a context belongs to. Empty fields are unset.
type Scope struct {
	Channel string
	Item    string
	Step    string
	RunID   string
}

type scopeKey struct{}

// WithScope layers s over any scope already on ctx; non-empty fields of s win.
func WithScope(ctx context.Context, s Scope) context.Context {
	merged := ScopeFrom(ctx)
	if s.Channel != "" {
		merged.Channel = s.Channel
	}
	if s.Item != "" {
		merged.Item = s.Item
	}
	if s.Step != "" {
		merged.Step = s.Step
	}
	if s.RunID != "" {
		merged.RunID = s.RunID
	}
	if merged == (Scope{}) {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, merged)
}

// ScopeFrom returns the scope on ctx, or the zero Scope.
func ScopeFrom(ctx context.Context) Scope {
	if ctx == nil {
		return Scope{}
	}
	s, _ := ctx.Value(scopeKey{}).(Scope)
	return s
}
