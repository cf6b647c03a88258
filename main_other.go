//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// the global hotkey needs the main thread on macOS and Windows
func main() {
	mainthread.Init(run)
}
