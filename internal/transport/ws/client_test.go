package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quiz-bot-service/internal/app"
)

// gatewayStub speaks the gateway side of the protocol: it acks every send and
// can push poll-answer events back at the client.
type gatewayStub struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	frames []frame
	ready  chan struct{}
}

func newGatewayStub() *gatewayStub {
	return &gatewayStub{ready: make(chan struct{})}
}

func (g *gatewayStub) handler() http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		g.mu.Lock()
		g.conn = conn
		g.mu.Unlock()
		close(g.ready)
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			g.mu.Lock()
			g.frames = append(g.frames, f)
			g.mu.Unlock()

			ack := ackPayload{}
			switch f.Type {
			case frameSendPhoto:
				ack.FileID = "file-abc"
			case frameSendQuizPoll:
				ack.PollID = "poll-xyz"
			}
			raw, _ := json.Marshal(ack)
			g.mu.Lock()
			_ = conn.WriteJSON(frame{ID: f.ID, Type: frameAck, Payload: raw})
			g.mu.Unlock()
		}
	}
}

func (g *gatewayStub) pushEvent(t *testing.T, frameType string, ev any) {
	t.Helper()
	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.conn.WriteJSON(frame{Type: frameType, Payload: raw}); err != nil {
		t.Fatalf("push event: %v", err)
	}
}

func (g *gatewayStub) sentFrames() []frame {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]frame(nil), g.frames...)
}

func dialStub(t *testing.T, handlers EventHandlers) (*Client, *gatewayStub) {
	t.Helper()
	stub := newGatewayStub()
	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)

	url := "ws" + server.URL[len("http"):]
	client, err := Dial(context.Background(), url, "test-token", handlers)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	<-stub.ready
	return client, stub
}

func TestSendQuizPollReturnsPollID(t *testing.T) {
	client, stub := dialStub(t, EventHandlers{})

	pollID, err := client.SendQuizPoll(context.Background(), -100, "Capital of France?",
		[4]string{"Paris", "Rome", "Madrid", "Berlin"}, 0)
	if err != nil {
		t.Fatalf("send quiz poll: %v", err)
	}
	if pollID != "poll-xyz" {
		t.Fatalf("expected poll-xyz, got %q", pollID)
	}

	frames := stub.sentFrames()
	if len(frames) != 1 || frames[0].Type != frameSendQuizPoll {
		t.Fatalf("unexpected frames: %+v", frames)
	}
	var payload sendQuizPollPayload
	if err := json.Unmarshal(frames[0].Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.ChatID != -100 || payload.CorrectIndex != 0 || payload.Options[1] != "Rome" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestSendPhotoReturnsFileID(t *testing.T) {
	client, _ := dialStub(t, EventHandlers{})

	fileID, err := client.SendPhoto(context.Background(), -100,
		app.PhotoSource{LocalPath: "/tmp/quiz.png"}, "Question 7")
	if err != nil {
		t.Fatalf("send photo: %v", err)
	}
	if fileID != "file-abc" {
		t.Fatalf("expected file-abc, got %q", fileID)
	}
}

func TestConcurrentSendsCorrelateAcks(t *testing.T) {
	client, _ := dialStub(t, EventHandlers{})

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- client.SendMessage(context.Background(), -100, "hello")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("send message: %v", err)
		}
	}
}

func TestPollAnswerEventsReachHandler(t *testing.T) {
	events := make(chan AnswerEvent, 1)
	_, stub := dialStub(t, EventHandlers{
		Answer: func(_ context.Context, ev AnswerEvent) { events <- ev },
	})

	stub.pushEvent(t, framePollAnswer, AnswerEvent{
		PollID:    "poll-xyz",
		UserID:    42,
		Username:  "alice",
		OptionIDs: []int{2},
	})

	select {
	case ev := <-events:
		if ev.PollID != "poll-xyz" || ev.UserID != 42 || len(ev.OptionIDs) != 1 || ev.OptionIDs[0] != 2 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for answer event")
	}
}

func TestAdminCommandEventsReachHandler(t *testing.T) {
	events := make(chan CommandEvent, 1)
	_, stub := dialStub(t, EventHandlers{
		Command: func(_ context.Context, ev CommandEvent) { events <- ev },
	})

	stub.pushEvent(t, frameAdminCommand, CommandEvent{
		UserID:  101,
		ChatID:  -1001,
		Command: "addslot",
		Args:    []string{"night", "22", "15"},
	})

	select {
	case ev := <-events:
		if ev.Command != "addslot" || ev.UserID != 101 || len(ev.Args) != 3 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for command event")
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	client, _ := dialStub(t, EventHandlers{})
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := client.SendMessage(context.Background(), -100, "late"); err == nil {
		t.Fatalf("expected error sending on a closed client")
	}
}
