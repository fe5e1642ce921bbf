package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/akave-ai/udplog/internal/model"
)

// AutoPlan is the timing of RunAuto. The zero value is not useful; use DefaultAutoPlan.
type AutoPlan struct {
	LevelGap time.Duration
	Burst    int
	BurstGap time.Duration
}

// DefaultAutoPlan sends one record per level 200ms apart, then ten WARN records 50ms apart,
// enough to trip the default limit of 5 per second.
func DefaultAutoPlan() AutoPlan {
	return AutoPlan{LevelGap: 200 * time.Millisecond, Burst: 10, BurstGap: 50 * time.Millisecond}
}

// RunAuto sends the scripted sequence in plan. Send failures are reported to out and do not stop the run.
func RunAuto(ctx context.Context, c *Client, plan AutoPlan, out io.Writer) error {
	fmt.Fprintln(out, "Automated tests starting...")
	for i, level := range model.Levels {
		c.report(ctx, out, string(level), fmt.Sprintf("Test%d", i+1))
		if err := sleep(ctx, plan.LevelGap); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "Testing rate limit...")
	for i := 0; i < plan.Burst; i++ {
		c.report(ctx, out, string(model.LevelWarn), "Rate limit test")
		if err := sleep(ctx, plan.BurstGap); err != nil {
			return err
		}
	}
	return nil
}

// RunManual reads a level and then a message per record from in until "exit" or EOF.
func RunManual(ctx context.Context, c *Client, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "Manual Logging Test Started:")
	for {
		fmt.Fprint(out, "Enter log level (DEBUG, INFO, WARN, ERROR, FATAL) or 'exit': ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		level := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if level == "EXIT" {
			return nil
		}
		if !ValidLevel(level) {
			fmt.Fprintln(out, "Invalid log level. Try again.")
			continue
		}

		fmt.Fprint(out, "Enter log message: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		c.report(ctx, out, level, scanner.Text())
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Client) report(ctx context.Context, out io.Writer, level, message string) {
	id := NewRequestID()
	if err := c.Send(ctx, level, message, id); err != nil {
		fmt.Fprintf(out, "Failed to send log: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Successfully sent log: %s\n", Entry(level, message, id))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
