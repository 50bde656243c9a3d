package calendar

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PermissionState is the calendar access state.
type PermissionState int

// Permission states. Unknown moves to Granted or Denied when a request
// completes; a later request may move between Granted and Denied.
const (
	PermissionUnknown PermissionState = iota
	PermissionGranted
	PermissionDenied
)

func (p PermissionState) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Authorizer asks for permission to write to the calendar. RequestAccess
// may block; Service always calls it off the owner goroutine.
type Authorizer interface {
	RequestAccess(ctx context.Context) (bool, error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context) (bool, error)

// RequestAccess calls f.
func (f AuthorizerFunc) RequestAccess(ctx context.Context) (bool, error) {
	return f(ctx)
}

// PolicyAuthorizer answers every request with a fixed decision, typically
// taken from configuration.
type PolicyAuthorizer struct {
	Grant bool
}

// RequestAccess returns the configured decision.
func (a PolicyAuthorizer) RequestAccess(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return a.Grant, nil
}

// PromptAuthorizer asks on a terminal. Only an answer of "y" or "yes"
// grants access.
type PromptAuthorizer struct {
	In  io.Reader
	Out io.Writer
}

// RequestAccess writes the prompt and reads one line.
func (a PromptAuthorizer) RequestAccess(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := fmt.Fprint(a.Out, "Allow movienight to add movie nights to your calendar? [y/N] "); err != nil {
		return false, fmt.Errorf("writing prompt: %w", err)
	}
	line, err := bufio.NewReader(a.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Access policies accepted by NewAuthorizer.
const (
	AccessGranted = "granted"
	AccessDenied  = "denied"
	AccessPrompt  = "prompt"
)

// ErrUnknownAccessPolicy is returned by NewAuthorizer for an unrecognized
// policy.
var ErrUnknownAccessPolicy = errors.New("unknown calendar access policy")

// NewAuthorizer builds the Authorizer for a configured access policy.
// An empty policy means granted.
func NewAuthorizer(policy string, in io.Reader, out io.Writer) (Authorizer, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case AccessGranted, "":
		return PolicyAuthorizer{Grant: true}, nil
	case AccessDenied:
		return PolicyAuthorizer{Grant: false}, nil
	case AccessPrompt:
		return PromptAuthorizer{In: in, Out: out}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAccessPolicy, policy)
}
