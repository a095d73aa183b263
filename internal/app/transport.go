package app

import "context"

// PhotoSource points at quiz image content: a transport-issued file ID when
// one is already known, else a path on local disk.
type PhotoSource struct {
	FileID    string
	LocalPath string
}

// Transport is the messaging-platform boundary. Implementations deliver
// messages, photos and quiz polls to a chat and hand back platform handles.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	// SendPhoto returns the transport-issued file ID for the uploaded photo,
	// so local files only need uploading once.
	SendPhoto(ctx context.Context, chatID int64, photo PhotoSource, caption string) (string, error)
	// SendQuizPoll posts a single-answer quiz poll and returns its poll ID.
	SendQuizPoll(ctx context.Context, chatID int64, question string, options [4]string, correctIndex int) (string, error)
}
