package cli

import (
	"errors"
	"fmt"
)

// Process exit codes. Scripts wrapping the callisto CLI branch on
// these, so they are part of the command-line contract.
const (
	// ExitOK is a successful run.
	ExitOK = 0

	// ExitFailure is a command that ran and failed.
	ExitFailure = 1

	// ExitConfig is a configuration problem: unreadable file, failed
	// validation, bad flag combination.
	ExitConfig = 2

	// ExitAuth is a missing or expired OAuth credential.
	ExitAuth = 3
)

// ConfigError is a configuration problem surfaced to the operator.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// AuthError is a credential problem: the CLI could not obtain a usable
// OAuth token.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication error: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// CommandError wraps a failure from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewAuthError creates a new AuthError.
func NewAuthError(err error) *AuthError {
	return &AuthError{Err: err}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

// ExitCode maps an error to the process exit code. Wrapped errors are
// classified by the outermost recognized type.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return ExitConfig
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return ExitAuth
	}

	return ExitFailure
}
