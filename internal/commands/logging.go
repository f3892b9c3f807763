package commands

import (
	"strings"

	"github.com/newtuple/dialogtuple/internal/logging"
	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

// CommandLogger returns the logger for handlers of one service, named
// dialogtuple.commands.<service>.
func CommandLogger(provider interfaces.LoggerProvider, service string) interfaces.Logger {
	service = strings.TrimSpace(service)
	if service == "" {
		service = "core"
	}
	return logging.WithFields(
		logging.ModuleCommands.Child(service).Logger(provider),
		map[string]any{"service": service},
	)
}
