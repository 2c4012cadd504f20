package term

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"fieldsurvey/pkg/ports/termport"
)

type line struct {
	text string
	err  error
}

// Adapter is the interactive termport.Terminal over an input reader and an
// output writer (normally stdin/stdout). A single reader goroutine owns the
// input stream for the adapter's lifetime, so a cancelled Ask leaves no
// goroutine racing on the scanner; the line typed during cancellation is
// delivered to the next Ask.
type Adapter struct {
	out   io.Writer
	lines chan line
	mu    sync.Mutex
}

var _ termport.Terminal = (*Adapter)(nil)

// New builds an Adapter over the given reader/writer pair.
func New(in io.Reader, out io.Writer) *Adapter {
	a := &Adapter{
		out:   out,
		lines: make(chan line),
	}
	go a.readLines(in)
	return a
}

func (a *Adapter) readLines(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		a.lines <- line{text: strings.TrimSpace(scanner.Text())}
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	for {
		a.lines <- line{err: err}
	}
}

func (a *Adapter) Say(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintln(a.out, text)
}

func (a *Adapter) Ask(ctx context.Context, label string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, "%s ", label)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l := <-a.lines:
		if l.err != nil {
			return "", fmt.Errorf("read input: %w", l.err)
		}
		return l.text, nil
	}
}

// AskSecret reads the line like Ask. Echo suppression needs raw terminal
// control and is left to the hosting shell.
func (a *Adapter) AskSecret(ctx context.Context, label string) (string, error) {
	return a.Ask(ctx, label)
}
