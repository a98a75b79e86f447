package service

import (
	"context"
	"errors"
	"testing"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type recordSender struct {
	sent []tgbot.MessageConfig
	err  error
}

func (r *recordSender) Send(c tgbot.Chattable) (tgbot.Message, error) {
	if m, ok := c.(tgbot.MessageConfig); ok {
		r.sent = append(r.sent, m)
	}
	return tgbot.Message{}, r.err
}

func TestTelegramSendf(t *testing.T) {
	rs := &recordSender{}
	tg := NewTelegramWithSender(rs, 555)

	tg.Sendf(context.Background(), "stake %.2f on %s", 2.0, "EURUSD")

	if len(rs.sent) != 1 {
		t.Fatalf("sent = %d", len(rs.sent))
	}
	if rs.sent[0].ChatID != 555 || rs.sent[0].Text != "stake 2.00 on EURUSD" {
		t.Fatalf("message = %+v", rs.sent[0])
	}
}

func TestTelegramSkipsWithoutChat(t *testing.T) {
	rs := &recordSender{}
	NewTelegramWithSender(rs, 0).Send(context.Background(), "hello")
	if len(rs.sent) != 0 {
		t.Fatalf("sent without chat id")
	}
}

func TestTelegramSendErrorIsSwallowed(t *testing.T) {
	rs := &recordSender{err: errors.New("429 too many requests")}
	NewTelegramWithSender(rs, 1).Send(context.Background(), "hello")
	if len(rs.sent) != 1 {
		t.Fatalf("sent = %d", len(rs.sent))
	}
}
