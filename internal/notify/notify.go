// Package notify defines the notification dispatch seam between the sweep
// and the chat transport.
package notify

import "context"

// Notifier delivers formatted text to a chat. Implementations must return
// delivery failures as plain errors; the sweep treats them as non-fatal.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}
