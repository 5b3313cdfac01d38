package cli

import (
	"errors"
	"fmt"
)

// Process exit codes. Scripts branch on these, so treat them as part of
// the command-line interface.
const (
	// ExitFailure is the generic failure code.
	ExitFailure = 1
	// ExitConfig signals an unusable configuration.
	ExitConfig = 2
	// ExitAuth signals rejected provider credentials.
	ExitAuth = 3
)

// ConfigError represents an error in configuration.
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

// ExitCode returns the exit code for configuration errors.
func (e *ConfigError) ExitCode() int { return ExitConfig }

// CommandError represents an error from a command execution.
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

// AuthError represents a failed credential probe against a provider.
type AuthError struct {
	Provider string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Provider, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code for authentication failures.
func (e *AuthError) ExitCode() int { return ExitAuth }

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// NewAuthError creates a new AuthError.
func NewAuthError(provider string, err error) *AuthError {
	return &AuthError{
		Provider: provider,
		Err:      err,
	}
}

// exitCoder is implemented by errors that carry a process exit code.
type exitCoder interface {
	ExitCode() int
}

// ExitCode returns the process exit code for err: the code carried by
// the first ExitCode-aware error in the chain, or ExitFailure. A nil
// error returns zero.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return ExitFailure
}
