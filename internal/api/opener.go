package api

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"shorts/internal/logging"
)

// ErrOpenUnsupported is returned when no file manager is known for the platform.
var ErrOpenUnsupported = errors.New("opening folders is not supported on this platform")

// Opener shows a directory in the desktop file manager.
type Opener interface {
	Open(dir string) error
}

// CommandOpener launches a file manager process.
type CommandOpener struct {
	command []string
	goos    string
}

// Creates a new CommandOpener. An empty command selects the platform default.
func NewCommandOpener(command string) *CommandOpener {
	return &CommandOpener{command: strings.Fields(command), goos: runtime.GOOS}
}

func (o *CommandOpener) argv(dir string) ([]string, error) {
	if len(o.command) > 0 {
		return append(append([]string(nil), o.command...), dir), nil
	}
	switch o.goos {
	case "windows":
		return []string{"explorer", dir}, nil
	case "darwin":
		return []string{"open", dir}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return []string{"xdg-open", dir}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrOpenUnsupported, o.goos)
}

// Open starts the file manager without waiting for it to exit.
func (o *CommandOpener) Open(dir string) error {
	argv, err := o.argv(dir)
	if err != nil {
		return err
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open folder %s: %w", dir, err)
	}
	go func() {
		// explorer exits non-zero even when the window opened.
		if err := cmd.Wait(); err != nil {
			logging.Debug("file manager exited", zap.String("command", argv[0]), zap.Error(err))
		}
	}()
	return nil
}
