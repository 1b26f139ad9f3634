// Package sms delivers text messages to phone numbers.
package sms

import (
	"context"
	"errors"
)

var (
	// ErrRecipientRequired is returned when Message.To is empty.
	ErrRecipientRequired = errors.New("sms: recipient is required")
	// ErrUnavailable is returned while the gateway circuit is open.
	ErrUnavailable = errors.New("sms: gateway unavailable")
)

// Message is a single SMS.
type Message struct {
	// To is an E.164 phone number.
	To   string
	Body string
	// Code is the one-time code carried by Body, if any. Only the log
	// driver reads it.
	Code string
}

// Sender sends SMS messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func validate(msg Message) error {
	if msg.To == "" {
		return ErrRecipientRequired
	}
	return nil
}
