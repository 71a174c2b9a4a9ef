package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beka-birhanu/vinom-race-server/api"
	"github.com/beka-birhanu/vinom-race-server/config"
	"github.com/beka-birhanu/vinom-race-server/logger"
	"github.com/beka-birhanu/vinom-race-server/maze"
	"github.com/beka-birhanu/vinom-race-server/service"
	"github.com/beka-birhanu/vinom-race-server/service/i"
	"github.com/beka-birhanu/vinom-race-server/socket"
	"google.golang.org/grpc"
)

// Global variables for dependencies
var (
	envs             config.ServerConfig
	grpcConnListener net.Listener
	grpcServer       *grpc.Server
	httpServer       *http.Server
	socketHub        *socket.Hub
	roomManager      i.RoomManager
	appLogger        i.Logger
)

func initSocketHub() {
	socketLogger, err := logger.New("SERVER-SOCKET", config.ColorBlue, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating socket hub logger: %v", err))
		os.Exit(1)
	}
	hub, err := socket.NewHub(socket.Config{
		HeartbeatExpiration: time.Duration(envs.WSHeartbeatExpiration) * time.Millisecond,
		BufferSize:          envs.WSBufferSize,
		Logger:              socketLogger,
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating socket hub: %v", err))
		os.Exit(1)
	}

	socketHub = hub
	appLogger.Info("Socket hub initialized")
}

func initRoomManager() {
	gameLogger, err := logger.New("ROOM-MANAGER", config.ColorCyan, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating room manager logger: %v", err))
		os.Exit(1)
	}
	manager, err := service.NewRoomManager(
		&service.Config{
			Socket:           socketHub,
			MazeFactory:      maze.Generate,
			Rows:             envs.MazeRows,
			Cols:             envs.MazeCols,
			SnapshotInterval: time.Duration(envs.SnapshotInterval) * time.Millisecond,
			GameDuration:     time.Duration(envs.GameDuration) * time.Second,
			Logger:           gameLogger,
		},
	)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating room manager: %v", err))
		os.Exit(1)
	}
	roomManager = manager
	appLogger.Info("Room Manager initialized")
}

func initSessionController() {
	grpcServer = grpc.NewServer()
	err := api.RegisterNewSessionServer(grpcServer, roomManager)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating and Registering session controller: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Session controller initialized")
}

func initHTTPServer() {
	mux := http.NewServeMux()
	mux.Handle("/ws", socketHub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%v", envs.HostIP, envs.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	appLogger.Info("HTTP server initialized")
}

func main() {
	appLogger, _ = logger.New("APP", config.ColorGreen, os.Stdout)
	envs = config.LoadServer()
	initSocketHub()
	initRoomManager()
	initSessionController()
	initHTTPServer()

	defer func() {
		roomManager.StopAll()
		socketHub.Stop()
	}()

	go func() {
		appLogger.Info(fmt.Sprintf("Serving websockets at: %s/ws", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error(fmt.Sprintf("Serving HTTP: %v", err))
			os.Exit(1)
		}
	}()

	var err error
	addr := fmt.Sprintf("%s:%v", envs.HostIP, envs.GrpcPort)
	grpcConnListener, err = net.Listen("tcp", addr)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Listening tcp: %v", err))
		os.Exit(1)
	}

	go func() {
		appLogger.Info(fmt.Sprintf("Serving gRPC at: %s", addr))
		if err := grpcServer.Serve(grpcConnListener); err != nil {
			appLogger.Error(fmt.Sprintf("Serving gRPC: %v", err))
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	appLogger.Info("Shutting down")

	grpcServer.GracefulStop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Warning(fmt.Sprintf("Shutting down HTTP: %v", err))
	}
}
