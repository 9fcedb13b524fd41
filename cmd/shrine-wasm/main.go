//go:build js && wasm

package main

import "github.com/Its-donkey/shrine-live/internal/ui/wasm"

func main() {
	wasm.RunApp()
}
