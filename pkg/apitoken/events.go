package apitoken

import "context"

// Publisher receives token lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, event any)
}

// Created is published after a token is persisted. Plaintext is carried on
// the event exactly once and never stored.
type Created struct {
	Token     *Token
	Plaintext string
}

// Revoked is published after a token is revoked.
type Revoked struct {
	Token *Token
}

// NoopPublisher discards all events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, any) {}
