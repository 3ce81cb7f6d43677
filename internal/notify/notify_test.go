package notify

import (
	"context"
	"testing"
)

type recordingSink struct {
	got []string
}

func (r *recordingSink) Send(_ context.Context, message string) {
	r.got = append(r.got, message)
}

func TestFanoutDeliversToEverySink(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}

	Fanout{a, b}.Send(context.Background(), "order placed")

	for i, sink := range []*recordingSink{a, b} {
		if len(sink.got) != 1 || sink.got[0] != "order placed" {
			t.Errorf("sink %d: got %v", i, sink.got)
		}
	}
}

func TestTelegramWithoutTokenIsNoop(t *testing.T) {
	// Missing configuration must never panic or error the caller
	tg := NewTelegram("", "123")
	tg.Send(context.Background(), "hello")
}
