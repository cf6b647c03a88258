//go:build !linux && !darwin

package hotkey

import "golang.design/x/hotkey"

const modAlt = hotkey.ModAlt
