package os

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

type logger interface {
	Info(msg string, keyvals ...interface{})
}

// TrapSignal catches SIGTERM and SIGINT, executes the clean up function and
// then exits with a value that is greater than 128. Both signals trigger the
// identical graceful-shutdown path: the process must not die before cleanupFunc
// has returned.
func TrapSignal(logger logger, cleanupFunc func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigs
		logger.Info("caught signal; shutting down", "signal", sig.String())

		if cleanupFunc != nil {
			cleanupFunc()
		}

		exitCode := 128

		switch sig {
		case syscall.SIGINT:
			exitCode += int(syscall.SIGINT)
		case syscall.SIGTERM:
			exitCode += int(syscall.SIGTERM)
		}

		os.Exit(exitCode)
	}()
}

// Exit prints the given message and exits with status 1.
func Exit(s string) {
	fmt.Println(s)
	os.Exit(1)
}

// EnsureDir creates the given directory if it does not exist.
func EnsureDir(dir string, mode os.FileMode) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, mode); err != nil {
			return fmt.Errorf("could not create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether filePath names an existing file.
func FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}
