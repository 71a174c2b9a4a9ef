// Command racebot joins a room and races to the goal along the maze's
// unique path.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beka-birhanu/vinom-race-server/client"
	"github.com/beka-birhanu/vinom-race-server/config"
	"github.com/beka-birhanu/vinom-race-server/logger"
	"github.com/beka-birhanu/vinom-race-server/protocol"
)

func main() {
	appLogger, _ := logger.New("RACEBOT", config.ColorPurple, os.Stdout)
	envs := config.LoadClient()

	codec, err := protocol.CodecByName(envs.Codec)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Selecting codec: %v", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := client.Dial(ctx, envs.ServerURL, codec)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Connecting: %v", err))
		os.Exit(1)
	}
	defer conn.Close()

	driver, err := client.NewDriver(client.DriverConfig{
		Transport:    conn,
		Room:         envs.Room,
		Identity:     envs.Identity,
		TickInterval: time.Duration(envs.TickInterval) * time.Millisecond,
		Intent:       client.FollowPath(),
		Logger:       appLogger,
		Notify: func(n client.Notice) {
			if n.Message != "" {
				appLogger.Info(n.Message)
			}
		},
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating driver: %v", err))
		os.Exit(1)
	}

	state, err := driver.Run(ctx)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Racing: %v", err))
		os.Exit(1)
	}
	if state.Winner == "" {
		appLogger.Info("Race ended without a winner")
		return
	}
	appLogger.Info(fmt.Sprintf("Winner: %s", state.Winner))
}
