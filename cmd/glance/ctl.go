package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/glance/internal/adapter/output"
	"github.com/jmylchreest/glance/internal/dbus"
)

const ctlTimeout = 5 * time.Second

var ctlOpts struct {
	format     string
	bodyMaxLen int
}

var ctlCmd = &cobra.Command{
	Use:   "ctl",
	Short: "Control a running glance daemon",
	Long: `Send commands to a running glance daemon over the session bus.

These are equivalent to the real-time signals, but wait for the daemon to
apply the change before returning.`,
}

var ctlReadCmd = &cobra.Command{
	Use:   "read",
	Short: "Mark the current notification read",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, c *dbus.ControlClient, args []string) error {
		id, err := c.MarkRead(ctx)
		if err != nil {
			return err
		}
		if id != 0 {
			logger.Debug("marked read", "id", id)
		}
		return nil
	}),
}

var ctlClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Dismiss every notification",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, c *dbus.ControlClient, args []string) error {
		count, err := c.ClearAll(ctx)
		if err != nil {
			return err
		}
		logger.Debug("cleared notifications", "count", count)
		return nil
	}),
}

var ctlNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Move to the next notification",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, c *dbus.ControlClient, args []string) error {
		_, err := c.Next(ctx)
		return err
	}),
}

var ctlPrevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Move to the previous notification",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, c *dbus.ControlClient, args []string) error {
		_, err := c.Prev(ctx)
		return err
	}),
}

var ctlCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Dismiss one notification by id",
	Args:  cobra.ExactArgs(1),
	RunE: withClient(func(ctx context.Context, c *dbus.ControlClient, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := c.Close(ctx, id); err != nil {
			if dbus.IsNotFound(err) {
				return fmt.Errorf("notification %d not found", id)
			}
			return err
		}
		return nil
	}),
}

var ctlRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the current waybar status line",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, c *dbus.ControlClient, args []string) error {
		status, err := c.Render(ctx)
		if err != nil {
			return err
		}
		return output.WriteStatus(os.Stdout, status)
	}),
}

var ctlHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Print every notification the daemon holds",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, c *dbus.ControlClient, args []string) error {
		opts := output.DefaultFormatterOptions()
		opts.BodyMaxLen = ctlOpts.bodyMaxLen
		formatter, err := output.NewFormatter(output.FormatType(ctlOpts.format), opts)
		if err != nil {
			return err
		}

		entries, err := c.History(ctx)
		if err != nil {
			return err
		}
		return formatter.Format(os.Stdout, entries)
	}),
}

func init() {
	rootCmd.AddCommand(ctlCmd)
	ctlCmd.AddCommand(ctlReadCmd, ctlClearCmd, ctlNextCmd, ctlPrevCmd, ctlCloseCmd, ctlRenderCmd, ctlHistoryCmd)

	ctlHistoryCmd.Flags().StringVarP(&ctlOpts.format, "format", "f", string(output.FormatPlain),
		fmt.Sprintf("Output format %v", output.ValidFormats()))
	ctlHistoryCmd.Flags().IntVar(&ctlOpts.bodyMaxLen, "body-max-len", output.DefaultFormatterOptions().BodyMaxLen,
		"Truncate bodies in plain output (0 = unlimited)")
}

// withClient connects to the session bus and runs fn with a bounded context.
func withClient(fn func(ctx context.Context, c *dbus.ControlClient, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), ctlTimeout)
		defer cancel()
		return fn(ctx, dbus.NewControlClient(conn), args)
	}
}

func parseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid notification id %q", s)
	}
	return uint32(id), nil
}
