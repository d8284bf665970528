// Package dispatch implements the voice-turn engine and the operations the
// transports expose.
//
// A voice turn runs extract → resolve → execute → reply on a Turn value
// created for that request alone. Configuration is read from one profile
// snapshot per request, so a concurrent reload is never seen half applied.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/lircbridge/internal/catalog"
	"github.com/nadzzz/lircbridge/internal/lirc"
	"github.com/nadzzz/lircbridge/internal/macro"
	"github.com/nadzzz/lircbridge/internal/message"
	"github.com/nadzzz/lircbridge/internal/profile"
)

const (
	replyDone     = "OK. TV remote did %s."
	replyNotFound = "Sorry, I'm not sure I can do that."
)

// ErrUnknownMacro is returned when a macro is requested by a name that is
// not in the profile.
var ErrUnknownMacro = errors.New("unknown macro")

// Dispatcher is the central engine shared by all transports.
type Dispatcher struct {
	profiles *profile.Store
	driver   lirc.Driver
}

// New creates a Dispatcher over the given profile store and driver.
func New(profiles *profile.Store, driver lirc.Driver) *Dispatcher {
	return &Dispatcher{profiles: profiles, driver: driver}
}

// Voice handles one voice-assistant webhook call.
func (d *Dispatcher) Voice(ctx context.Context, query url.Values) *message.Reply {
	start := time.Now()
	turn := message.NewTurn(uuid.NewString(), ExtractIntent(query))
	logger := slog.With("turn_id", turn.ID)
	snap := d.profiles.Snapshot()

	if !turn.Intent.Present {
		turn.Enter(message.StateAwaitingIntent)
		turn.Prompted = true
		turn.Enter(message.StateDone)
		logger.Info("voice turn prompted for a command", "duration", time.Since(start))
		return turn.Reply()
	}

	turn.Enter(message.StateResolving)
	logger.Debug("voice turn started", "utterance", turn.Intent.Utterance)

	// Legacy control flow: an intent that already signals end of response
	// goes through a synthetic cancel which is what actually runs the macro.
	// The cancel flags are cleared again before replying.
	if turn.Intent.ResponseEnd && !turn.Cancelled {
		turn.Prompted = false
		turn.Cancelled = true
		turn.Intent.ResponseEnd = true
		turn.Enter(message.StateCancelled)
		d.runVoiceMacro(turn, snap, logger)
	}
	if turn.Cancelled {
		turn.Prompt = message.PromptNone
		turn.Prompted = false
		turn.Cancelled = false
		turn.Intent.ResponseEnd = true
	}

	turn.Enter(message.StateDone)
	logger.Info("voice turn complete",
		"macro", turn.Macro,
		"states", turn.States,
		"duration", time.Since(start))
	return turn.Reply()
}

func (d *Dispatcher) runVoiceMacro(turn *message.Turn, snap *profile.Profile, logger *slog.Logger) {
	m, ok := macro.Resolve(turn.Intent.Utterance, snap.Macros)
	if !ok {
		turn.Intent.ResponseText = replyNotFound
		logger.Info("no macro matched", "utterance", turn.Intent.Utterance)
		return
	}

	turn.Enter(message.StateExecuting)
	turn.Macro = m.Name
	if err := macro.Execute(m.Steps, d.driver); err != nil {
		// Transmission is fire-and-forget; the spoken reply does not change.
		logger.Warn("macro partially issued", "macro", m.Name, "error", err)
	}
	turn.Intent.ResponseText = fmt.Sprintf(replyDone, m.Name)
}

// Remotes returns the driver catalog with blacklisted commands removed.
func (d *Dispatcher) Remotes() catalog.Catalog {
	return catalog.Filter(d.driver.Remotes(), d.profiles.Snapshot().Blacklists)
}

// RemoteCommands returns the visible commands of one remote. The second
// result is false if the driver does not know the remote.
func (d *Dispatcher) RemoteCommands(remote string) ([]string, bool) {
	all := d.driver.Remotes()
	commands, ok := all[remote]
	if !ok {
		return nil, false
	}
	filtered := catalog.Filter(catalog.Catalog{remote: commands}, d.profiles.Snapshot().Blacklists)
	return filtered[remote], true
}

// Macros returns the configured macro table.
func (d *Dispatcher) Macros() *macro.Table {
	return d.profiles.Snapshot().Macros
}

// Macro looks up a macro by exact name.
func (d *Dispatcher) Macro(name string) (macro.Macro, bool) {
	return d.profiles.Snapshot().Macros.Lookup(name)
}

// Repeaters returns the remote → command → repeatable map.
func (d *Dispatcher) Repeaters() map[string]map[string]bool {
	r := d.profiles.Snapshot().Repeaters
	if r == nil {
		return map[string]map[string]bool{}
	}
	return r
}

// Send issues a single transmission.
func (d *Dispatcher) Send(mode macro.Mode, remote, command string) error {
	return macro.Execute([]macro.Step{{Remote: remote, Command: command, Mode: mode}}, d.driver)
}

// RunMacro executes the macro with exactly the given name.
func (d *Dispatcher) RunMacro(name string) error {
	m, ok := d.Macro(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMacro, name)
	}
	slog.Info("running macro", "macro", m.Name, "steps", len(m.Steps))
	if err := macro.Execute(m.Steps, d.driver); err != nil {
		slog.Warn("macro partially issued", "macro", m.Name, "error", err)
		return err
	}
	return nil
}

// Refresh reloads the profile and rediscovers the driver catalog.
func (d *Dispatcher) Refresh(ctx context.Context) error {
	var errs []error
	if _, err := d.profiles.Reload(); err != nil {
		errs = append(errs, fmt.Errorf("reloading profile: %w", err))
	}
	if err := d.driver.Reload(ctx); err != nil {
		errs = append(errs, fmt.Errorf("reloading driver: %w", err))
	}
	return errors.Join(errs...)
}
