// Package slogx holds slog attribute helpers shared by the genkit packages.
package slogx

import (
	"log/slog"
)

const (
	// KeyLoggerName is the attribute key naming the component that logs.
	KeyLoggerName = "logger"
	// KeyAction is the attribute key for an action key such as /model/googleai/gemini-1.5-flash.
	KeyAction = "action"
	// KeyPlugin is the attribute key for a plugin name.
	KeyPlugin = "plugin"
)

// Error returns an "error" attribute holding the error message.
// A nil error yields an empty string value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// LoggerName returns an attribute for the logger name.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// Action returns an attribute for an action key.
func Action(key string) slog.Attr {
	return slog.String(KeyAction, key)
}

// Plugin returns an attribute for a plugin name.
func Plugin(name string) slog.Attr {
	return slog.String(KeyPlugin, name)
}
