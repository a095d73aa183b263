// Package loopback is a transport that delivers nothing. It logs every send
// and fabricates handles, which is enough to run the service without a
// gateway connection.
package loopback

import (
	"context"
	"log"

	"github.com/google/uuid"

	"quiz-bot-service/internal/app"
)

type Transport struct{}

var _ app.Transport = (*Transport)(nil)

func New() *Transport {
	return &Transport{}
}

func (t *Transport) SendMessage(_ context.Context, chatID int64, text string) error {
	log.Printf("loopback: message to chat %d: %s", chatID, text)
	return nil
}

func (t *Transport) SendPhoto(_ context.Context, chatID int64, photo app.PhotoSource, caption string) (string, error) {
	fileID := photo.FileID
	if fileID == "" {
		fileID = "loopback-file-" + uuid.NewString()
	}
	log.Printf("loopback: photo to chat %d (file %s): %s", chatID, fileID, caption)
	return fileID, nil
}

func (t *Transport) SendQuizPoll(_ context.Context, chatID int64, question string, options [4]string, correctIndex int) (string, error) {
	pollID := "loopback-poll-" + uuid.NewString()
	log.Printf("loopback: quiz poll %s to chat %d: %s (correct %q)", pollID, chatID, question, options[correctIndex])
	return pollID, nil
}
