package repository

import "context"

// ResultStore maps a message id to the link of the bot's reply for it.
type ResultStore interface {
	// Put records the reply link for a message. Durable stores reject a second
	// Put for the same id with ErrDuplicateRecord.
	Put(ctx context.Context, messageID, replyLink string) error

	// Get returns the stored reply link and whether one was found.
	Get(ctx context.Context, messageID string) (string, bool, error)

	Close() error
}

// Cleaner is implemented by stores that support the maintenance wipe.
type Cleaner interface {
	Clean(ctx context.Context) (int64, error)
}
