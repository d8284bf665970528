package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nadzzz/lircbridge/internal/catalog"
	"github.com/nadzzz/lircbridge/internal/macro"
)

func newRemotesCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "remotes",
		Short: "Print the remotes and commands exposed to clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := a.loadProfile()
			if err != nil {
				return err
			}
			p := profiles.Snapshot()
			driver := a.newDriver(p)
			defer driver.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := driver.Reload(ctx); err != nil {
				return err
			}

			out := driver.Remotes()
			if !all {
				out = catalog.Filter(out, p.Blacklists)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include blacklisted commands")
	return cmd
}

func newSendCmd(a *app) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "send REMOTE COMMAND",
		Short: "Transmit one IR command",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := macro.Mode(mode)
			switch m {
			case macro.ModeOnce, macro.ModeStart, macro.ModeStop:
			default:
				return fmt.Errorf("unknown mode %q (want once, start or stop)", mode)
			}

			profiles, err := a.loadProfile()
			if err != nil {
				return err
			}
			driver := a.newDriver(profiles.Snapshot())
			err = macro.Execute([]macro.Step{{Remote: args[0], Command: args[1], Mode: m}}, driver)
			// Close drains the queue, so the transmission has gone out once it returns.
			if cerr := driver.Close(); err == nil {
				err = cerr
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", string(macro.ModeOnce), "transmission mode: once, start or stop")
	return cmd
}

func newResolveCmd(a *app) *cobra.Command {
	var run bool
	cmd := &cobra.Command{
		Use:   "resolve UTTERANCE",
		Short: "Show which macro a spoken phrase would trigger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := a.loadProfile()
			if err != nil {
				return err
			}
			p := profiles.Snapshot()
			out := cmd.OutOrStdout()

			m, ok := macro.Resolve(args[0], p.Macros)
			if !ok {
				fmt.Fprintln(out, "no macro within distance", macro.Threshold)
				return nil
			}
			fmt.Fprintf(out, "%s (%d steps)\n", m.Name, len(m.Steps))
			for _, s := range m.Steps {
				fmt.Fprintf(out, "  %s %s %s\n", s.Mode, s.Remote, s.Command)
			}
			if !run {
				return nil
			}

			driver := a.newDriver(p)
			err = macro.Execute(m.Steps, driver)
			if cerr := driver.Close(); err == nil {
				err = cerr
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&run, "run", false, "execute the matched macro")
	return cmd
}
