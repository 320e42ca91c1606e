package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"todoapp/internal/notify"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublisherNotifyRoundTrip(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}
	desc := "details"
	p.Notify(context.Background(), notify.TodoCreated("ada@example.com", "Ada", "Ship", &desc))

	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "ada@example.com" {
		t.Fatalf("unexpected key %q", w.msgs[0].Key)
	}
	got, err := Decode(w.msgs[0].Value)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Kind != notify.KindTodoCreated || got.TodoTitle != "Ship" || got.TodoDescription != "details" {
		t.Fatalf("unexpected message %+v", got)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("expected writer to be closed, err=%v", err)
	}
}

func TestPublisherSwallowsWriteErrors(t *testing.T) {
	p := &Publisher{writer: &fakeWriter{err: errors.New("broker down")}}
	p.Notify(context.Background(), notify.Welcome("a@b.com", "A"))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("{")); err == nil {
		t.Fatal("expected json error")
	}
	empty, _ := json.Marshal(notify.Message{Kind: notify.KindWelcome})
	if _, err := Decode(empty); err == nil {
		t.Fatal("expected missing recipient error")
	}
}
