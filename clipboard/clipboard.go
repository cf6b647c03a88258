// Package clipboard hands transcriptions to the system clipboard when
// there is no text input to put them in.
package clipboard

import (
	"errors"

	cb "github.com/atotto/clipboard"
)

var ErrUnavailable = errors.New("no system clipboard available")

// Available reports whether a clipboard backend was found.
func Available() bool { return !cb.Unsupported }

func Read() (string, error) {
	if cb.Unsupported {
		return "", ErrUnavailable
	}
	return cb.ReadAll()
}

func Copy(text string) error {
	if cb.Unsupported {
		return ErrUnavailable
	}
	return cb.WriteAll(text)
}
