package termport

import "context"

// Package termport provides the outbound interface between the screen flow
// and terminal adapters (interactive, fake).

// Terminal abstracts the user-facing I/O the screen flow needs: plain output
// and line-oriented input.
type Terminal interface {
	// Say writes a line of output to the user.
	Say(text string)
	// Ask prompts with label and returns one trimmed input line. It returns
	// the context error when the context ends before input arrives.
	Ask(ctx context.Context, label string) (string, error)
	// AskSecret behaves like Ask for sensitive input (passwords).
	AskSecret(ctx context.Context, label string) (string, error)
}
