// Package publisher relays a rendered note to the outside world.
package publisher

import "context"

// Publisher publishes the text of a note.
type Publisher interface {
	Publish(ctx context.Context, text string) error
}
