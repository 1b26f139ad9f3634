package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/ahoum/internal/pkg/stacktrace"
	"go.uber.org/atomic"
)

// responder makes Ack and Nack take effect once per message.
type responder struct {
	done atomic.Bool
}

func (r *responder) respond(fn func() error) error {
	if r.done.Swap(true) {
		return nil
	}
	return fn()
}

func (r *responder) responded() bool {
	return r.done.Load()
}

// deliver runs handler with panic recovery and applies auto ack.
func deliver(ctx context.Context, driver string, handler Handler, msg Message, r *responder, autoAck bool) {
	err := callWithRecover(ctx, driver, func() error { return handler(ctx, msg) })
	if err != nil {
		slog.WarnContext(ctx, "message handler failed", "driver", driver, "topic", msg.Topic(), "error", err)
	}

	if !autoAck || r.responded() {
		return
	}

	var ackErr error
	if err == nil {
		ackErr = msg.Ack(ctx)
	} else {
		ackErr = msg.Nack(ctx)
	}
	if ackErr != nil {
		slog.ErrorContext(ctx, "failed to ack message", "driver", driver, "topic", msg.Topic(), "error", ackErr)
	}
}

func callWithRecover(ctx context.Context, driver string, fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
		}
	}()

	return fn()
}

func validateConsume(topic string, handler Handler) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	return nil
}
