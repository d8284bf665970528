package macro

import (
	"errors"
	"fmt"
)

// Sender is the part of the transmission driver a macro needs.
// Implementations queue the transmission and return without waiting for it
// to complete.
type Sender interface {
	SendOnce(remote, command string) error
	SendStart(remote, command string) error
	SendStop(remote, command string) error
}

// Execute issues every step, in order, to s. Steps are not retried; a step
// that cannot be issued does not stop the rest. The joined issuance errors
// are returned for the caller to log.
func Execute(steps []Step, s Sender) error {
	var errs []error
	for i, step := range steps {
		if err := send(s, step); err != nil {
			errs = append(errs, fmt.Errorf("step %d (%s/%s): %w", i, step.Remote, step.Command, err))
		}
	}
	return errors.Join(errs...)
}

func send(s Sender, step Step) error {
	switch step.Mode {
	case ModeStart:
		return s.SendStart(step.Remote, step.Command)
	case ModeStop:
		return s.SendStop(step.Remote, step.Command)
	default:
		return s.SendOnce(step.Remote, step.Command)
	}
}
