// Package transport defines the interface for pluggable transports.
//
// Each transport (HTTP/WebSocket, gRPC) exposes the Service to its clients.
// The service does not care how requests arrive; it only works with this
// contract.
package transport

import (
	"context"
	"net/url"

	"github.com/nadzzz/lircbridge/internal/catalog"
	"github.com/nadzzz/lircbridge/internal/macro"
	"github.com/nadzzz/lircbridge/internal/message"
)

// Service is the set of operations transports expose. dispatch.Dispatcher
// implements it.
type Service interface {
	// Voice handles a voice-assistant webhook call.
	Voice(ctx context.Context, query url.Values) *message.Reply

	// Remotes returns the catalog with blacklisted commands removed.
	Remotes() catalog.Catalog

	// RemoteCommands returns the visible commands of one remote.
	RemoteCommands(remote string) ([]string, bool)

	Macros() *macro.Table
	Macro(name string) (macro.Macro, bool)
	Repeaters() map[string]map[string]bool

	// Send issues one transmission in the given mode.
	Send(mode macro.Mode, remote, command string) error

	// RunMacro executes a macro by exact name.
	RunMacro(name string) error

	// Refresh reloads the profile and the driver catalog.
	Refresh(ctx context.Context) error
}

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "http", "grpc").
	Name() string

	// Listen starts serving svc. It blocks until the context is cancelled.
	Listen(ctx context.Context, svc Service) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
