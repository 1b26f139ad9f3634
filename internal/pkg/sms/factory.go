package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	DriverLog  = "log"
	DriverHTTP = "http"
	DriverSNS  = "sns"
)

// ErrUnknownDriver indicates an unsupported SMS driver.
var ErrUnknownDriver = errors.New("sms: unknown driver")

type FactoryOptions struct {
	HTTP HTTPConfig
	SNS  SNSConfig
}

// NewFromDriver constructs a Sender by driver name. An empty name selects the log driver.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Sender, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverLog, "":
		return NewLog(), nil
	case DriverHTTP:
		return NewHTTP(opts.HTTP)
	case DriverSNS:
		return NewSNS(ctx, opts.SNS)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
