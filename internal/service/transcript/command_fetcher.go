package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/Taichi-iskw/audiorefresh/internal/errors"
	"github.com/Taichi-iskw/audiorefresh/internal/service/common"
)

// KeyPlaceholder is replaced by the transcript key in command arguments
const KeyPlaceholder = "{key}"

// commandFetcher implements Fetcher by running a CLI that prints the object
// to stdout, e.g. ["aws", "s3", "cp", "s3://bucket/{key}", "-"]
type commandFetcher struct {
	cmdRunner common.CmdRunner
	command   []string
}

// NewCommandFetcher creates a Fetcher running command with the default CmdRunner
func NewCommandFetcher(command []string) (Fetcher, error) {
	return NewCommandFetcherWithCmdRunner(common.NewCmdRunner(), command)
}

// NewCommandFetcherWithCmdRunner creates a Fetcher with custom CmdRunner (for testing)
func NewCommandFetcherWithCmdRunner(cmdRunner common.CmdRunner, command []string) (Fetcher, error) {
	if len(command) == 0 {
		return nil, apperrors.New(apperrors.CodeConfig, "transcript fetch command is empty")
	}
	if !strings.Contains(strings.Join(command, " "), KeyPlaceholder) {
		return nil, apperrors.New(apperrors.CodeConfig, "transcript fetch command has no "+KeyPlaceholder+" placeholder")
	}
	return &commandFetcher{cmdRunner: cmdRunner, command: command}, nil
}

// Fetch runs the configured command for key
func (f *commandFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, apperrors.New(apperrors.CodeTerminal, "transcript key is empty")
	}

	args := make([]string, len(f.command)-1)
	for i, arg := range f.command[1:] {
		args[i] = strings.ReplaceAll(arg, KeyPlaceholder, key)
	}

	out, err := f.cmdRunner.Run(ctx, f.command[0], args...)
	if err != nil {
		return nil, classifyCommandError(ctx, err, key)
	}
	return out, nil
}

// classifyCommandError maps CLI failures onto the fetch error taxonomy
func classifyCommandError(ctx context.Context, err error, key string) error {
	if ctx.Err() != nil {
		return apperrors.Wrap(err, apperrors.CodeTransient, "transcript fetch interrupted")
	}

	var cmdErr *common.CommandError
	if !errors.As(err, &cmdErr) {
		// The binary could not be started at all
		return apperrors.Wrap(err, apperrors.CodeConfig, "transcript fetch command could not run")
	}

	stderr := strings.ToLower(cmdErr.Stderr)
	switch {
	case strings.Contains(stderr, "nosuchkey"),
		strings.Contains(stderr, "not found"),
		strings.Contains(stderr, "no such file"),
		strings.Contains(stderr, "404"):
		return apperrors.Wrap(err, apperrors.CodeNotFound, fmt.Sprintf("transcript %s not found", key))
	case strings.Contains(stderr, "accessdenied"),
		strings.Contains(stderr, "access denied"),
		strings.Contains(stderr, "permission denied"),
		strings.Contains(stderr, "403"):
		return apperrors.Wrap(err, apperrors.CodeAccessDenied, fmt.Sprintf("access to transcript %s denied", key))
	default:
		return apperrors.Wrap(err, apperrors.CodeTransient, fmt.Sprintf("transcript fetch for %s failed", key))
	}
}
