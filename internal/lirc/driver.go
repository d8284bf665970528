// Package lirc is the transmission driver: it talks to lircd to send IR
// codes and to discover which remotes and commands are configured.
//
// Sends are fire-and-forget. They are queued in issue order and the caller
// gets control back before the code has been transmitted.
package lirc

import (
	"context"
	"errors"
	"time"

	"github.com/nadzzz/lircbridge/internal/catalog"
	"github.com/nadzzz/lircbridge/internal/macro"
)

// ErrClosed is returned when a send is issued after the driver was closed.
var ErrClosed = errors.New("lirc: driver closed")

// ErrQueueFull is returned when a send is issued while the send queue is
// at capacity, typically because lircd stopped answering. The send is
// dropped.
var ErrQueueFull = errors.New("lirc: send queue full")

// Driver is the capability set the rest of the service uses.
type Driver interface {
	macro.Sender

	// Remotes returns the current catalog. Callers must not modify it.
	Remotes() catalog.Catalog

	// Reload rediscovers the catalog and replaces it wholesale.
	Reload(ctx context.Context) error

	// Close drains queued sends and releases resources.
	Close() error
}

// Event describes one issued transmission.
type Event struct {
	Time    time.Time  `json:"time"`
	Mode    macro.Mode `json:"mode"`
	Remote  string     `json:"remote"`
	Command string     `json:"command"`
}

// Directive returns the lircd command verb for a mode.
func Directive(mode macro.Mode) string {
	switch mode {
	case macro.ModeStart:
		return "SEND_START"
	case macro.ModeStop:
		return "SEND_STOP"
	default:
		return "SEND_ONCE"
	}
}
