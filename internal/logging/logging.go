/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process. Production emits JSON lines on
// stdout; every other environment gets the console writer.
func Setup(environment string) zerolog.Logger {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stdout}
	if isProduction(environment) {
		out = os.Stdout
	}
	return SetupWithWriter(environment, out)
}

// SetupWithWriter configures zerolog to write to out and installs the result
// as the global logger.
func SetupWithWriter(environment string, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if strings.EqualFold(environment, "development") {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(out).With().Timestamp().Str("service", "pacingd").Logger().Level(level)
	log.Logger = logger
	return logger
}

func isProduction(environment string) bool {
	return strings.EqualFold(environment, "production")
}
