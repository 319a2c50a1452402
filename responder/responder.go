// Package responder produces reply text for a chat message, either through
// a vendor LLM or a local rule table.
package responder

import "context"

// Responder turns a user message into reply text.
type Responder interface {
	Reply(ctx context.Context, message string) (string, error)
}

// StreamingResponder additionally delivers the reply in chunks as they are
// generated. The full accumulated reply is returned; fn errors abort the
// stream.
type StreamingResponder interface {
	Responder
	StreamReply(ctx context.Context, message string, fn func(chunk string) error) (string, error)
}
