package faketerm

import (
	"context"
	"io"
	"strings"
	"sync"

	"fieldsurvey/pkg/ports/termport"
)

// FakeTerm implements termport.Terminal for headless tests: replies are
// scripted up front, every interaction is recorded.
type FakeTerm struct {
	mu      sync.Mutex
	Replies []string
	Output  []string
	Prompts []string
}

var _ termport.Terminal = (*FakeTerm)(nil)

// New builds a FakeTerm that answers prompts with the given replies in order.
func New(replies ...string) *FakeTerm {
	return &FakeTerm{Replies: replies}
}

func (f *FakeTerm) Say(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Output = append(f.Output, text)
}

func (f *FakeTerm) Ask(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, label)
	if len(f.Replies) == 0 {
		return "", io.EOF
	}
	reply := f.Replies[0]
	f.Replies = f.Replies[1:]
	return reply, nil
}

func (f *FakeTerm) AskSecret(ctx context.Context, label string) (string, error) {
	return f.Ask(ctx, label)
}

// SaidContaining reports whether any output line contains the substring.
func (f *FakeTerm) SaidContaining(substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, line := range f.Output {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
