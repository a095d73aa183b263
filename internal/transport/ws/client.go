// Package ws talks to the chat gateway over a single websocket connection.
// Outbound sends are JSON frames correlated to acks by sequence ID; inbound
// poll-answer events are dispatched to a handler.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"quiz-bot-service/internal/app"
)

const (
	frameSendMessage  = "send_message"
	frameSendPhoto    = "send_photo"
	frameSendQuizPoll = "send_quiz_poll"
	frameAck          = "ack"
	framePollAnswer   = "poll_answer"
	frameAdminCommand = "admin_command"
)

var errClosed = errors.New("ws: connection closed")

// AnswerEvent is an inbound vote on one of our quiz polls.
type AnswerEvent struct {
	PollID    string `json:"pollId"`
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	OptionIDs []int  `json:"optionIds"`
}

// AnswerHandler receives every poll-answer event read off the connection.
type AnswerHandler func(ctx context.Context, ev AnswerEvent)

// CommandEvent is an inbound admin command: a slash command from a chat,
// pre-split by the gateway.
type CommandEvent struct {
	UserID  int64    `json:"userId"`
	ChatID  int64    `json:"chatId"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// CommandHandler receives every admin-command event read off the connection.
type CommandHandler func(ctx context.Context, ev CommandEvent)

// EventHandlers bundles the inbound event callbacks. Nil handlers drop their
// events.
type EventHandlers struct {
	Answer  AnswerHandler
	Command CommandHandler
}

type frame struct {
	ID      uint64          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type sendMessagePayload struct {
	ChatID int64  `json:"chatId"`
	Text   string `json:"text"`
}

type sendPhotoPayload struct {
	ChatID    int64  `json:"chatId"`
	FileID    string `json:"fileId,omitempty"`
	LocalPath string `json:"localPath,omitempty"`
	Caption   string `json:"caption,omitempty"`
}

type sendQuizPollPayload struct {
	ChatID       int64     `json:"chatId"`
	Question     string    `json:"question"`
	Options      [4]string `json:"options"`
	CorrectIndex int       `json:"correctIndex"`
}

type ackPayload struct {
	FileID string `json:"fileId,omitempty"`
	PollID string `json:"pollId,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Client implements app.Transport over the gateway websocket.
type Client struct {
	conn     *websocket.Conn
	handlers EventHandlers
	timeout  time.Duration

	writeMu sync.Mutex // one frame on the wire at a time

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan ackPayload
	closed  bool
}

var _ app.Transport = (*Client)(nil)

// Dial connects to the gateway and starts the read loop. Handlers run on the
// read goroutine.
func Dial(ctx context.Context, url, token string, handlers EventHandlers) (*Client, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial gateway %s: %w", url, err)
	}
	c := &Client{
		conn:     conn,
		handlers: handlers,
		timeout:  30 * time.Second,
		pending:  make(map[uint64]chan ackPayload),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := c.roundTrip(ctx, frameSendMessage, sendMessagePayload{ChatID: chatID, Text: text})
	return err
}

func (c *Client) SendPhoto(ctx context.Context, chatID int64, photo app.PhotoSource, caption string) (string, error) {
	ack, err := c.roundTrip(ctx, frameSendPhoto, sendPhotoPayload{
		ChatID:    chatID,
		FileID:    photo.FileID,
		LocalPath: photo.LocalPath,
		Caption:   caption,
	})
	if err != nil {
		return "", err
	}
	return ack.FileID, nil
}

func (c *Client) SendQuizPoll(ctx context.Context, chatID int64, question string, options [4]string, correctIndex int) (string, error) {
	ack, err := c.roundTrip(ctx, frameSendQuizPoll, sendQuizPollPayload{
		ChatID:       chatID,
		Question:     question,
		Options:      options,
		CorrectIndex: correctIndex,
	})
	if err != nil {
		return "", err
	}
	if ack.PollID == "" {
		return "", fmt.Errorf("gateway ack missing poll id")
	}
	return ack.PollID, nil
}

// Close tears down the connection and fails all in-flight sends.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *Client) roundTrip(ctx context.Context, frameType string, payload any) (ackPayload, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return ackPayload{}, fmt.Errorf("marshal %s payload: %w", frameType, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ackPayload{}, errClosed
	}
	c.nextID++
	id := c.nextID
	ch := make(chan ackPayload, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err = c.conn.WriteJSON(frame{ID: id, Type: frameType, Payload: raw})
	c.writeMu.Unlock()
	if err != nil {
		c.dropPending(id)
		return ackPayload{}, fmt.Errorf("write %s frame: %w", frameType, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case ack, ok := <-ch:
		if !ok {
			return ackPayload{}, errClosed
		}
		if ack.Error != "" {
			return ackPayload{}, fmt.Errorf("gateway rejected %s: %s", frameType, ack.Error)
		}
		return ack, nil
	case <-timer.C:
		c.dropPending(id)
		return ackPayload{}, fmt.Errorf("gateway ack timeout for %s", frameType)
	case <-ctx.Done():
		c.dropPending(id)
		return ackPayload{}, ctx.Err()
	}
}

func (c *Client) dropPending(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) readLoop() {
	defer c.Close()
	for {
		var f frame
		if err := c.conn.ReadJSON(&f); err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				log.Printf("ws read error: %v", err)
			}
			return
		}
		switch f.Type {
		case frameAck:
			var ack ackPayload
			if err := json.Unmarshal(f.Payload, &ack); err != nil {
				log.Printf("ws bad ack payload: %v", err)
				continue
			}
			c.mu.Lock()
			ch, ok := c.pending[f.ID]
			if ok {
				delete(c.pending, f.ID)
			}
			c.mu.Unlock()
			if ok {
				ch <- ack
			}
		case framePollAnswer:
			var ev AnswerEvent
			if err := json.Unmarshal(f.Payload, &ev); err != nil {
				log.Printf("ws bad poll answer payload: %v", err)
				continue
			}
			if c.handlers.Answer != nil {
				c.handlers.Answer(context.Background(), ev)
			}
		case frameAdminCommand:
			var ev CommandEvent
			if err := json.Unmarshal(f.Payload, &ev); err != nil {
				log.Printf("ws bad admin command payload: %v", err)
				continue
			}
			if c.handlers.Command != nil {
				c.handlers.Command(context.Background(), ev)
			}
		default:
			log.Printf("ws unsupported frame type %q", f.Type)
		}
	}
}
