package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// setupSignalHandler returns a channel closed on the first SIGINT or SIGTERM,
// and a function that stops listening. A second signal is left to the default
// handler so a stuck run can still be killed.
func setupSignalHandler(errOut io.Writer) (<-chan struct{}, func()) {
	shutdown := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	done := make(chan struct{})

	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			fmt.Fprintf(errOut, "\nReceived signal: %v, stopping operations...\n", sig)
			signal.Stop(sigChan)
			close(shutdown)
		case <-done:
		}
	}()

	return shutdown, func() {
		signal.Stop(sigChan)
		close(done)
	}
}
