// Package http implements the HTTP/WebSocket transport for lircbridge.
//
// This transport serves the JSON API used by the web remote, the voice
// assistant webhook, and a WebSocket stream of transmissions.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nadzzz/lircbridge/internal/config"
	"github.com/nadzzz/lircbridge/internal/dispatch"
	"github.com/nadzzz/lircbridge/internal/events"
	"github.com/nadzzz/lircbridge/internal/lirc"
	"github.com/nadzzz/lircbridge/internal/macro"
	"github.com/nadzzz/lircbridge/internal/transport"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Transport implements transport.Transport over HTTP and WebSocket.
type Transport struct {
	cfg config.HTTPConfig
	hub *events.Hub

	mu      sync.Mutex
	servers []*http.Server
}

// New creates a new HTTP transport. hub may be nil, in which case /ws is
// not served.
func New(cfg config.HTTPConfig, hub *events.Hub) *Transport {
	return &Transport{cfg: cfg, hub: hub}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler returns the routes serving svc.
func (t *Transport) Handler(svc transport.Service) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"name":    "lircbridge",
			"remotes": len(svc.Remotes()),
			"macros":  svc.Macros().Len(),
		})
	})

	mux.HandleFunc("GET /remotes.json", func(w http.ResponseWriter, r *http.Request) {
		t.handleRemotes(w, r, svc)
	})
	mux.HandleFunc("GET /remotes/{file}", func(w http.ResponseWriter, r *http.Request) {
		t.handleRemote(w, r, svc)
	})
	mux.HandleFunc("POST /remotes/{remote}/{command}", func(w http.ResponseWriter, r *http.Request) {
		t.handleSend(w, r, svc, macro.ModeOnce)
	})
	mux.HandleFunc("POST /remotes/{remote}/{command}/send_start", func(w http.ResponseWriter, r *http.Request) {
		t.handleSend(w, r, svc, macro.ModeStart)
	})
	mux.HandleFunc("POST /remotes/{remote}/{command}/send_stop", func(w http.ResponseWriter, r *http.Request) {
		t.handleSend(w, r, svc, macro.ModeStop)
	})

	mux.HandleFunc("GET /macros.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Macros())
	})
	mux.HandleFunc("GET /macros/{file}", func(w http.ResponseWriter, r *http.Request) {
		t.handleMacro(w, r, svc)
	})
	mux.HandleFunc("POST /macros/{macro}", func(w http.ResponseWriter, r *http.Request) {
		t.handleRunMacro(w, r, svc)
	})

	mux.HandleFunc("GET /repeaters.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Repeaters())
	})

	mux.HandleFunc("GET /echo", func(w http.ResponseWriter, r *http.Request) {
		t.handleEcho(w, r, svc)
	})

	mux.HandleFunc("GET /refresh", func(w http.ResponseWriter, r *http.Request) {
		t.handleRefresh(w, r, svc)
	})

	if t.hub != nil {
		mux.HandleFunc("GET /ws", t.handleEvents)
	}

	// Swagger UI for the registered OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return mux
}

// Listen starts the HTTP server (and the HTTPS one, if configured) and
// blocks until ctx is cancelled.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	handler := t.Handler(svc)

	plain := &http.Server{
		Addr:              fmt.Sprintf(":%d", t.cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	t.mu.Lock()
	t.servers = append(t.servers, plain)
	t.mu.Unlock()

	errs := make(chan error, 2)

	if t.cfg.TLS.Enabled {
		secure := &http.Server{
			Addr:              fmt.Sprintf(":%d", t.cfg.TLS.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		t.mu.Lock()
		t.servers = append(t.servers, secure)
		t.mu.Unlock()

		go func() {
			slog.Info("https transport listening", "port", t.cfg.TLS.Port)
			if err := secure.ListenAndServeTLS(t.cfg.TLS.CertFile, t.cfg.TLS.KeyFile); !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("https listen: %w", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		_ = t.Close()
	}()

	slog.Info("http transport listening", "port", t.cfg.Port)
	go func() {
		if err := plain.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("http listen: %w", err)
			return
		}
		errs <- nil
	}()

	return <-errs
}

// handleRemotes lists every remote and its visible commands.
//
// @Summary     List remotes
// @Description Returns every remote known to lircd with blacklisted commands removed.
// @Tags        remotes
// @Produce     json
// @Success     200  {object}  map[string][]string
// @Router      /remotes.json [get]
func (t *Transport) handleRemotes(w http.ResponseWriter, _ *http.Request, svc transport.Service) {
	writeJSON(w, svc.Remotes())
}

// handleRemote lists the visible commands of one remote.
//
// @Summary     List commands of a remote
// @Tags        remotes
// @Produce     json
// @Param       remote  path  string  true  "Remote name followed by .json"
// @Success     200  {array}   string
// @Failure     404  {string}  string  "Unknown remote"
// @Router      /remotes/{remote}.json [get]
func (t *Transport) handleRemote(w http.ResponseWriter, r *http.Request, svc transport.Service) {
	name, ok := strings.CutSuffix(r.PathValue("file"), ".json")
	if !ok {
		http.NotFound(w, r)
		return
	}
	commands, found := svc.RemoteCommands(name)
	if !found {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, commands)
}

// handleSend transmits one command.
//
// @Summary     Send an IR command
// @Description POST /remotes/{remote}/{command} sends once; the send_start and
// @Description send_stop suffixes start and stop a repeated transmission.
// @Tags        remotes
// @Param       remote   path  string  true  "Remote name"
// @Param       command  path  string  true  "Command name"
// @Success     200  {string}  string  "Queued"
// @Failure     400  {string}  string  "Invalid remote or command"
// @Failure     503  {string}  string  "Driver closed or send queue full"
// @Router      /remotes/{remote}/{command} [post]
func (t *Transport) handleSend(w http.ResponseWriter, r *http.Request, svc transport.Service, mode macro.Mode) {
	w.Header().Set("Cache-Control", "no-cache")
	remote, command := r.PathValue("remote"), r.PathValue("command")

	if err := svc.Send(mode, remote, command); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, lirc.ErrClosed) || errors.Is(err, lirc.ErrQueueFull) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeStatus(w, http.StatusOK)
}

// handleMacro returns the steps of one macro.
//
// @Summary     Show a macro
// @Tags        macros
// @Produce     json
// @Param       macro  path  string  true  "Macro name followed by .json"
// @Success     200  {array}   array
// @Failure     404  {string}  string  "Unknown macro"
// @Router      /macros/{macro}.json [get]
func (t *Transport) handleMacro(w http.ResponseWriter, r *http.Request, svc transport.Service) {
	name, ok := strings.CutSuffix(r.PathValue("file"), ".json")
	if !ok {
		http.NotFound(w, r)
		return
	}
	m, found := svc.Macro(name)
	if !found {
		http.NotFound(w, r)
		return
	}
	steps := m.Steps
	if steps == nil {
		steps = []macro.Step{}
	}
	writeJSON(w, steps)
}

// handleRunMacro executes a macro by exact name.
//
// @Summary     Run a macro
// @Tags        macros
// @Param       macro  path  string  true  "Macro name"
// @Success     200  {string}  string  "Queued"
// @Failure     404  {string}  string  "Unknown macro"
// @Router      /macros/{macro} [post]
func (t *Transport) handleRunMacro(w http.ResponseWriter, r *http.Request, svc transport.Service) {
	w.Header().Set("Cache-Control", "no-cache")
	err := svc.RunMacro(r.PathValue("macro"))
	switch {
	case errors.Is(err, dispatch.ErrUnknownMacro):
		writeStatus(w, http.StatusNotFound)
	case err != nil:
		// Steps already issued stay issued; report what failed.
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		writeStatus(w, http.StatusOK)
	}
}

// handleEcho is the voice-assistant webhook.
//
// @Summary     Voice assistant turn
// @Description The assistant passes its request JSON in the "json" query parameter;
// @Description slots.Question.value is matched against the macro names.
// @Tags        voice
// @Produce     json
// @Param       json  query     string  false  "Assistant request JSON"
// @Success     200   {object}  message.Reply
// @Router      /echo [get]
func (t *Transport) handleEcho(w http.ResponseWriter, r *http.Request, svc transport.Service) {
	writeJSON(w, svc.Voice(r.Context(), r.URL.Query()))
}

// handleRefresh reloads the profile and the lircd catalog.
//
// @Summary     Reload configuration
// @Tags        admin
// @Success     303  {string}  string  "Redirect to /"
// @Failure     500  {string}  string  "Reload failed"
// @Router      /refresh [get]
func (t *Transport) handleRefresh(w http.ResponseWriter, r *http.Request, svc transport.Service) {
	if err := svc.Refresh(r.Context()); err != nil {
		slog.Error("refresh failed", "error", err)
		http.Error(w, "refresh failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Close gracefully shuts down the HTTP servers.
func (t *Transport) Close() error {
	t.mu.Lock()
	servers := t.servers
	t.servers = nil
	t.mu.Unlock()

	var errs []error
	for _, s := range servers {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, s.Shutdown(ctx))
		cancel()
	}
	return errors.Join(errs...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeStatus(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(http.StatusText(status)))
}
