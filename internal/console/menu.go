package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Handler is the set of commands reachable from the menu.
type Handler interface {
	SetConfig(ctx context.Context, shareLink string) error
	TestConnection(ctx context.Context) error
	EnableAptProxy(ctx context.Context) error
	DisableAptProxy(ctx context.Context) error
	Status(ctx context.Context) error
}

const menuText = `
1 - set VLESS config
2 - test connection
3 - apt tunnel (enable proxy)
4 - apt detunnel (disable proxy)
5 - status
q - quit
`

// Run shows the menu until the user quits, input ends or ctx is cancelled.
// Command errors are printed and the menu is shown again.
func Run(ctx context.Context, in *bufio.Reader, out, errOut io.Writer, h Handler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(out, menuText)
		fmt.Fprint(out, "Command: ")

		line, err := readLine(in)
		if err != nil {
			return endOfInput(out, err)
		}

		var cmdErr error
		switch line {
		case "1":
			fmt.Fprintln(out, "VLESS link:")
			shareLink, err := readLine(in)
			if err != nil {
				return endOfInput(out, err)
			}
			cmdErr = h.SetConfig(ctx, shareLink)
		case "2":
			cmdErr = h.TestConnection(ctx)
		case "3":
			cmdErr = h.EnableAptProxy(ctx)
		case "4":
			cmdErr = h.DisableAptProxy(ctx)
		case "5":
			cmdErr = h.Status(ctx)
		case "q":
			return nil
		default:
			fmt.Fprintln(out, "Invalid command.")
		}

		if cmdErr != nil {
			fmt.Fprintln(errOut, "Error:", cmdErr)
		}
	}
}

// readLine returns the next trimmed line. A last line without a newline is
// still returned; io.EOF is reported only when nothing was read.
func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func endOfInput(out io.Writer, err error) error {
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(out)
		return nil
	}
	return fmt.Errorf("failed to read input: %w", err)
}
