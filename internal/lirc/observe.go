package lirc

import (
	"time"

	"github.com/nadzzz/lircbridge/internal/macro"
)

// Observed wraps a Driver and reports every successfully issued send.
type Observed struct {
	Driver
	notify func(Event)
}

// Observe returns d wrapped so that notify sees each issued send.
func Observe(d Driver, notify func(Event)) *Observed {
	return &Observed{Driver: d, notify: notify}
}

func (o *Observed) SendOnce(remote, command string) error {
	return o.issue(macro.ModeOnce, remote, command, o.Driver.SendOnce)
}

func (o *Observed) SendStart(remote, command string) error {
	return o.issue(macro.ModeStart, remote, command, o.Driver.SendStart)
}

func (o *Observed) SendStop(remote, command string) error {
	return o.issue(macro.ModeStop, remote, command, o.Driver.SendStop)
}

func (o *Observed) issue(mode macro.Mode, remote, command string, send func(string, string) error) error {
	if err := send(remote, command); err != nil {
		return err
	}
	if o.notify != nil {
		o.notify(Event{Time: time.Now(), Mode: mode, Remote: remote, Command: command})
	}
	return nil
}
