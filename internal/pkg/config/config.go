// Package config reads runtime settings by dotted key, e.g. "modules.facilitator.enabled".
package config

import (
	"io"
	"time"
)

// Config retrieves typed configuration values. Missing keys yield zero values.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64

	// GetSecond reads an integer number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer number of minutes.
	GetMinute(key string) time.Duration
	// GetDay reads an integer number of days.
	GetDay(key string) time.Duration

	// GetBinary reads a base64 encoded value.
	GetBinary(key string) []byte

	// GetArray reads either a YAML list or a "<a>,<b>,..." string.
	GetArray(key string) []string
}
