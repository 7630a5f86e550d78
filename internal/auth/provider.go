// Package auth supplies bearer tokens to the Fabric client. Token acquisition
// (device flows, refresh, caching) is an external concern; fabctl only reads
// an opaque string from a configured source.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mattjoyce/fabctl/internal/config"
)

// ErrNoToken indicates the configured source produced an empty token.
var ErrNoToken = errors.New("no bearer token available")

// TokenProvider yields a bearer token for outbound Fabric requests.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken returns a fixed token. Used by tests and the fake server.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) {
	if t == "" {
		return "", ErrNoToken
	}
	return string(t), nil
}

// EnvToken reads the token from an environment variable on every call.
type EnvToken string

func (t EnvToken) Token(ctx context.Context) (string, error) {
	v := strings.TrimSpace(os.Getenv(string(t)))
	if v == "" {
		return "", fmt.Errorf("%w: environment variable %s is empty", ErrNoToken, string(t))
	}
	return v, nil
}

// FileToken reads the token from a file on every call, so an external refresh
// process can rotate it in place.
type FileToken string

func (t FileToken) Token(ctx context.Context) (string, error) {
	data, err := os.ReadFile(string(t))
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return "", fmt.Errorf("%w: token file %s is empty", ErrNoToken, string(t))
	}
	return v, nil
}

// CommandToken shells out to an external helper (e.g. az cli wrapper) and
// uses its stdout as the token.
type CommandToken string

func (t CommandToken) Token(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", string(t))
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("token command failed: %w", err)
	}
	v := strings.TrimSpace(string(out))
	if v == "" {
		return "", fmt.Errorf("%w: token command produced no output", ErrNoToken)
	}
	return v, nil
}

// FromConfig builds a TokenProvider from the configured source.
func FromConfig(tc config.TokenSourceConfig) (TokenProvider, error) {
	switch tc.Kind {
	case "env":
		return EnvToken(tc.Env), nil
	case "file":
		return FileToken(tc.File), nil
	case "command":
		return CommandToken(tc.Command), nil
	case "static":
		return StaticToken(tc.Static), nil
	default:
		return nil, fmt.Errorf("unknown token source kind %q", tc.Kind)
	}
}
