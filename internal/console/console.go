package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"sync/atomic"
)

// MaxPendingLines bounds lines read ahead of execution
const MaxPendingLines = 64

// Console reads host commands line by line and executes them in order on a
// single goroutine, so undo always sees commands in the order they were typed.
type Console struct {
	handler *Handler
	in      io.Reader
	out     io.Writer

	executed atomic.Uint64
	failed   atomic.Uint64
}

// New creates a console over in/out
func New(handler *Handler, in io.Reader, out io.Writer) *Console {
	return &Console{handler: handler, in: in, out: out}
}

// Run executes commands until ctx is cancelled or input ends. It returns
// nil on EOF.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string, MaxPendingLines)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	fmt.Fprintln(c.out, "🎙️ Host console ready (type help)")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			c.Exec(line)
		}
	}
}

// Exec runs a single line and prints its reply
func (c *Console) Exec(line string) {
	cmd, ok := ParseLine(line)
	if !ok {
		return
	}

	reply, err := c.handler.Execute(cmd)
	if err != nil {
		c.failed.Add(1)
		log.Printf("⌨️ %q failed: %v", cmd.Raw, err)
		fmt.Fprintf(c.out, "❌ %v\n", err)
		return
	}
	c.executed.Add(1)
	fmt.Fprintln(c.out, reply)
}

// Stats returns executed and failed command counts
func (c *Console) Stats() (executed, failed uint64) {
	return c.executed.Load(), c.failed.Load()
}
