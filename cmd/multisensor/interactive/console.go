// Package interactive provides the interactive console of the multisensor
// command.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/multisensor/multisensor-go/pkg/bridge"
	"github.com/multisensor/multisensor-go/pkg/fault"
	"github.com/multisensor/multisensor-go/pkg/hal"
	"github.com/multisensor/multisensor-go/pkg/hal/sim"
)

// Simulation is the drift simulation the console can start and stop.
type Simulation interface {
	Start(ctx context.Context)
	Stop()
	Running() bool
}

// Target is what the console operates on during one bridge lifetime.
type Target struct {
	Bridge    *bridge.Bridge
	Climate   *sim.ClimateSensor
	Light     *sim.ADC
	Motion    *sim.Pin
	Simulator Simulation
}

// Console handles interactive mode.
type Console struct {
	rl  *readline.Instance
	out io.Writer

	mu     sync.Mutex
	target *Target
	ctx    context.Context
}

// New creates a console on the terminal.
func New() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "multisensor> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{rl: rl, out: rl.Stdout()}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that coordinates with the readline prompt. Use
// it for log output.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// SetTarget switches the console to a new bridge, or detaches it with nil.
func (c *Console) SetTarget(t *Target) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = t
}

func (c *Console) current() *Target {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Run reads commands until quit, EOF or ctx is cancelled.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()
	c.ctx = ctx

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if quit := c.Execute(line); quit {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line and reports whether it asked to quit.
func (c *Console) Execute(line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
		return false
	case "quit", "exit", "q":
		return true
	}

	t := c.current()
	if t == nil {
		fmt.Fprintln(c.out, "Bridge not running")
		return false
	}

	switch cmd {
	case "status", "s":
		c.cmdStatus(t)
	case "read", "r":
		c.cmdRead(t, args)
	case "climate", "c":
		c.cmdClimate(t, args)
	case "light", "l":
		c.cmdLight(t, args)
	case "motion", "m":
		c.cmdMotion(t, args)
	case "fail":
		c.cmdFail(t, args)
	case "recover":
		c.cmdRecover(t)
	case "irq":
		c.cmdIRQ(t, args)
	case "identify", "id":
		t.Bridge.Identify()
		fmt.Fprintln(c.out, "Identify pattern queued")
	case "reset":
		c.cmdReset(t, fault.ConfigReset)
	case "wipe":
		c.cmdReset(t, fault.ConfigWipe)
	case "start", "sim-start":
		ctx := c.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		t.Simulator.Start(ctx)
	case "stop", "sim-stop":
		t.Simulator.Stop()
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Multi-Sensor Commands:
  Inspection:
    status               - Show bridge state, values and counters
    read [path]          - Read one characteristic (or all)

  Sensors:
    climate <C> <%RH>    - Set the temperature/humidity reading
    light <raw>          - Set the raw light ADC value (0-1023, darker is higher)
    motion on|off        - Drive the PIR line
    fail [checksum]      - Make climate reads fail (timeout by default)
    recover              - Clear an injected climate failure
    irq <pin>            - Raise an interrupt from another pin

  Accessory:
    identify             - Play the identify pattern
    reset                - Reset configuration (unpair) and restart
    wipe                 - Wipe configuration and event capture, restart

  Simulation:
    start                - Start drifting readings
    stop                 - Stop drifting readings

  General:
    help                 - Show this help
    quit                 - Exit

  Path Format:
    service/characteristic - e.g., temperatureSensor/currentTemperature`)
}

func (c *Console) cmdStatus(t *Target) {
	st := t.Bridge.Status()
	drift := "stopped"
	if t.Simulator.Running() {
		drift = "running"
	}

	fmt.Fprintf(c.out, "State:      %s\n", st.State)
	fmt.Fprintf(c.out, "Simulation: %s\n", drift)
	fmt.Fprintln(c.out, "Values:")
	c.printValues(st.Values)
	fmt.Fprintf(c.out, "Dispatch:   requested=%d overwritten=%d sent=%d failed=%d pending=%v\n",
		st.Dispatch.Requested, st.Dispatch.Overwritten, st.Dispatch.Sent, st.Dispatch.Failed, st.Pending)
	fmt.Fprintf(c.out, "Indicator:  signalled=%d played=%d dropped=%d\n",
		st.Fault.Signalled, st.Fault.Played, st.Fault.Dropped)
	fmt.Fprintf(c.out, "Motion:     handled=%d foreign=%d dropped=%d\n",
		st.Motion.Handled, st.Motion.Foreign, st.Motion.Dropped)
}

func (c *Console) printValues(values map[string]any) {
	paths := make([]string, 0, len(values))
	for p := range values {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(c.out, "  %-45s %v\n", p, values[p])
	}
}

func (c *Console) cmdRead(t *Target, args []string) {
	acc := t.Bridge.Accessory()
	if len(args) == 0 {
		c.printValues(acc.Snapshot())
		return
	}
	ch, err := acc.Lookup(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	unit := ch.Metadata().Unit
	fmt.Fprintf(c.out, "%s = %v %s (notifications: %d)\n", ch.Path(), ch.Value(), unit, ch.Notifications())
}

func (c *Console) cmdClimate(t *Target, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "Usage: climate <celsius> <humidity>")
		return
	}
	temp, err1 := strconv.ParseFloat(args[0], 64)
	hum, err2 := strconv.ParseFloat(args[1], 64)
	if err1 != nil || err2 != nil {
		fmt.Fprintln(c.out, "Invalid number")
		return
	}
	t.Climate.Set(hal.ClimateReading{Temperature: temp, Humidity: hum})
	fmt.Fprintf(c.out, "Next climate read: %.1f C, %.1f %%RH\n", temp, hum)
}

func (c *Console) cmdLight(t *Target, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: light <raw>")
		return
	}
	raw, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		fmt.Fprintln(c.out, "Invalid ADC value")
		return
	}
	t.Light.Set(uint16(raw))
	fmt.Fprintf(c.out, "Light ADC set to %d\n", raw)
}

func (c *Console) cmdMotion(t *Target, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: motion on|off")
		return
	}
	switch strings.ToLower(args[0]) {
	case "on", "1", "true":
		t.Motion.Drive(true)
	case "off", "0", "false":
		t.Motion.Drive(false)
	default:
		fmt.Fprintln(c.out, "Usage: motion on|off")
	}
}

func (c *Console) cmdFail(t *Target, args []string) {
	err := hal.ErrTimeout
	if len(args) > 0 && strings.EqualFold(args[0], "checksum") {
		err = hal.ErrChecksum
	}
	t.Climate.Fail(err)
	fmt.Fprintf(c.out, "Climate reads now fail: %v\n", err)
}

func (c *Console) cmdRecover(t *Target) {
	t.Climate.Recover()
	fmt.Fprintln(c.out, "Climate failure cleared")
}

func (c *Console) cmdIRQ(t *Target, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: irq <pin>")
		return
	}
	pin, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintln(c.out, "Invalid pin")
		return
	}
	t.Motion.Spurious(pin)
}

func (c *Console) cmdReset(t *Target, code fault.Code) {
	if err := t.Bridge.Reset(code); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "%s accepted, restarting\n", code)
}
