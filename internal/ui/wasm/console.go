//go:build js && wasm

package wasm

import (
	"strings"
	"syscall/js"
)

// consoleWriter sends log lines to the browser console.
type consoleWriter struct{}

func (consoleWriter) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	level := "log"
	switch {
	case strings.Contains(line, `"level":"ERROR"`), strings.Contains(line, `"level":"FATAL"`):
		level = "error"
	case strings.Contains(line, `"level":"WARN"`):
		level = "warn"
	}
	consoleCall(level, line)
	return len(p), nil
}

func consoleCall(method, msg string) {
	console := js.Global().Get("console")
	if console.Truthy() {
		console.Call(method, msg)
	}
}
