package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/danmuck/sideswap/internal/protocol"
)

const (
	consolePrompt   = "write command "
	consoleNotReady = "Matrix isn't ready"
)

// RunConsole reads command indices from in (0=START, 1=STATUS, 2=RESULT) and
// prints each reply to out. Any other input, or EOF, ends the loop without
// touching the connection.
func RunConsole(ctx context.Context, c *Client, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, consolePrompt)
		if !scanner.Scan() {
			return scanner.Err()
		}
		idx, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil {
			return nil
		}
		cmd, ok := protocol.CommandForIndex(idx)
		if !ok {
			return nil
		}

		if cmd != protocol.CommandResult {
			status, err := c.Send(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Received status: %s\n", status)
			continue
		}

		status, result, err := c.Result()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Received status: %s\n", status)
		if status == protocol.StatusCompleted {
			fmt.Fprintln(out, result.String())
		} else {
			fmt.Fprintln(out, consoleNotReady)
		}
	}
}
