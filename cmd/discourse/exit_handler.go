package main

import (
	"errors"
	"os"

	"github.com/loykin/discourseapi"
	"github.com/loykin/discourseapi/internal/common"
)

// Exit codes
const (
	exitFailure   = 1
	exitTransport = 2
)

// ExitHandler provides a testable way to handle program termination
type ExitHandler interface {
	Exit(code int)
	LogFatalError(err error, msg string, keyvals ...any)
}

// DefaultExitHandler implements ExitHandler for production use
type DefaultExitHandler struct{}

func (h *DefaultExitHandler) Exit(code int) {
	os.Exit(code)
}

// LogFatalError logs err and exits; transport failures exit with exitTransport.
func (h *DefaultExitHandler) LogFatalError(err error, msg string, keyvals ...any) {
	common.LogError(msg, err, keyvals...)
	h.Exit(exitCode(err))
}

func exitCode(err error) int {
	var te *discourseapi.TransportError
	if errors.As(err, &te) {
		return exitTransport
	}
	return exitFailure
}

// Global exit handler (can be replaced for testing)
var exitHandler ExitHandler = &DefaultExitHandler{}
