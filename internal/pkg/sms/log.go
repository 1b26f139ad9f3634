package sms

import (
	"context"
	"fmt"
	"log/slog"
)

const devCodeFormat = "Your Ahoum verification code is: %s. Valid for 10 minutes. Do not share this code."

// Log prints messages to the application log instead of sending them.
type Log struct{}

func NewLog() *Log { return &Log{} }

func (*Log) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	text := msg.Body
	if msg.Code != "" {
		text = fmt.Sprintf(devCodeFormat, msg.Code)
	}

	slog.InfoContext(ctx, "sms (development)", "to", msg.To, "text", text)
	return nil
}
