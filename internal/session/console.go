package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// ConsoleInput completes consent flows over a text terminal: it prints the
// authorization URL and blocks until the operator pastes the redirect URL
// or code.
type ConsoleInput struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsoleInput creates an input provider over stdin/stdout.
func NewConsoleInput() *ConsoleInput {
	return &ConsoleInput{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

// ReadAuthInput prints the authorization URL and reads one line of input.
func (c *ConsoleInput) ReadAuthInput(ctx context.Context, authURL string) (string, error) {
	fmt.Fprintf(c.out, "\n\n========ACTION REQUIRED: Please open the following URL to authenticate:========\n\n%s\n\n", authURL)
	fmt.Fprint(c.out, "Paste the redirected URL (or the 'code' parameter) here: ")

	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("ReadAuthInput: %w", err)
	}
	return strings.TrimSpace(line), nil
}
