package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/aa-headunit/headunit-go/pkg/app"
	"github.com/aa-headunit/headunit-go/pkg/config"
)

// Console is the operator-facing interactive command loop, grounded on
// cmd/mash-device/interactive/device.go's REPL shape but driven by a
// genuine chzyer/readline instance rather than a bare bufio.Scanner, so
// the prompt survives concurrent log output.
type Console struct {
	rl    *readline.Instance
	app   *app.App
	store *config.Store
}

// NewConsole opens the readline instance and returns a Console ready to
// Run.
func NewConsole(a *app.App, store *config.Store) (*Console, error) {
	rl, err := readline.New("headunit> ")
	if err != nil {
		return nil, err
	}
	return &Console{rl: rl, app: a, store: store}, nil
}

// Stdout returns the writer log output should be redirected to while the
// console is running, so ordinary log lines don't scribble over the
// prompt readline is managing.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Close releases the terminal.
func (c *Console) Close() error {
	return c.rl.Close()
}

// Run reads commands until EOF, "quit", or ctx cancellation, calling
// cancel to trigger the host program's shutdown on "quit".
func (c *Console) Run(cancel func()) {
	c.printHelp()

	for {
		line, err := c.rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			cancel()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "help", "?":
			c.printHelp()
		case "status":
			c.cmdStatus()
		case "bluetooth", "bt":
			c.cmdBluetooth()
		case "quit", "exit", "q":
			fmt.Fprintln(c.Stdout(), "shutting down...")
			cancel()
			return
		default:
			fmt.Fprintf(c.Stdout(), "unknown command %q (try \"help\")\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.Stdout(), "commands: status, bluetooth, quit")
}

func (c *Console) cmdStatus() {
	if c.app.SessionActive() {
		fmt.Fprintln(c.Stdout(), "session: active")
	} else {
		fmt.Fprintln(c.Stdout(), "session: waiting for device")
	}
}

func (c *Console) cmdBluetooth() {
	cfg, err := c.store.Load()
	if err != nil {
		fmt.Fprintf(c.Stdout(), "load config: %v\n", err)
		return
	}
	if cfg.LastBluetoothPeer == "" {
		fmt.Fprintln(c.Stdout(), "no bluetooth peer paired yet")
		return
	}
	fmt.Fprintf(c.Stdout(), "last paired: %s (auto-connect: %v)\n", cfg.LastBluetoothPeer, cfg.AutoConnect)

	recent, err := c.store.RecentAddresses()
	if err != nil {
		fmt.Fprintf(c.Stdout(), "load recent addresses: %v\n", err)
		return
	}
	if len(recent) > 0 {
		fmt.Fprintf(c.Stdout(), "recent: %s\n", strings.Join(recent, ", "))
	}
}
