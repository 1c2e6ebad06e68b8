/*
This binary boots the engine, runs the testbed demo against the assets
directory and shuts down cleanly on an interrupt.
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/vesta-engine/vesta/engine"
	"github.com/vesta-engine/vesta/engine/core"
	"github.com/vesta-engine/vesta/testbed"
)

func main() {
	configPath := "vesta.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	config, err := engine.LoadConfig(configPath)
	if err != nil {
		core.LogFatal(err.Error())
	}

	e, err := engine.New(config)
	if err != nil {
		core.LogFatal(err.Error())
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		e.RequestQuit()
	}()

	runErr := testbed.New(e).Run()

	if err := e.Shutdown(); err != nil {
		core.LogError(err.Error())
	}
	if runErr != nil {
		core.LogFatal(runErr.Error())
	}
}
