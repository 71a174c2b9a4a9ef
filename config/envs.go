package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ServerConfig holds the authority's configuration values.
type ServerConfig struct {
	HostIP   string // Host IP the listeners bind to
	HTTPPort int    // Port for the websocket endpoint
	GrpcPort int    // Port for the GRPC server

	MazeRows         int // Default maze rows for rooms created without dimensions (odd)
	MazeCols         int // Default maze columns for rooms created without dimensions (odd)
	SnapshotInterval int // Interval between update_players snapshots (in milliseconds)
	GameDuration     int // Maximum race length (in seconds)

	WSHeartbeatExpiration int // Time without a pong before a connection is dropped (in milliseconds)
	WSBufferSize          int // Size of the websocket read and write buffers (in bytes)
}

// ClientConfig holds the racebot's configuration values.
type ClientConfig struct {
	ServerURL    string // Websocket URL of the authority
	Room         string // Room to join
	Identity     string // Display name to race under
	Codec        string // Wire codec, json or msgpack
	TickInterval int    // Animation tick (in milliseconds)
}

// LoadServer loads the authority configuration from the environment.
// It loads environment variables from a .env file if one is present.
func LoadServer() ServerConfig {
	loadDotEnv()

	return ServerConfig{
		HostIP:   mustGetEnv("HOST_IP"),
		HTTPPort: mustGetEnvAsInt("HTTP_PORT"),
		GrpcPort: mustGetEnvAsInt("GRPC_PORT"),

		MazeRows:         mustGetEnvAsInt("MAZE_ROWS"),
		MazeCols:         mustGetEnvAsInt("MAZE_COLS"),
		SnapshotInterval: getEnvAsIntOr("SNAPSHOT_INTERVAL_MS", 2000),
		GameDuration:     getEnvAsIntOr("GAME_DURATION_SEC", 300),

		WSHeartbeatExpiration: getEnvAsIntOr("WS_HEARTBEAT_EXPIRATION", 6000),
		WSBufferSize:          getEnvAsIntOr("WS_BUFFER_SIZE", 1024),
	}
}

// LoadClient loads the racebot configuration from the environment.
func LoadClient() ClientConfig {
	loadDotEnv()

	return ClientConfig{
		ServerURL:    mustGetEnv("RACE_SERVER_URL"),
		Room:         mustGetEnv("RACE_ROOM"),
		Identity:     mustGetEnv("RACE_IDENTITY"),
		Codec:        getEnvOr("RACE_CODEC", "json"),
		TickInterval: getEnvAsIntOr("RACE_TICK_MS", 16),
	}
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}
}

// mustGetEnv retrieves the value of an environment variable or logs a fatal error if not set.
func mustGetEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		log.Fatalf("%s[APP]%s %s[FATAL]%s Environment variable %s is not set", ColorGreen, ColorReset, ColorRed, ColorReset, key)
	}
	return value
}

// mustGetEnvAsInt retrieves the value of an environment variable as an integer or logs a fatal error if not set or cannot be parsed.
func mustGetEnvAsInt(key string) int {
	valueStr := mustGetEnv(key)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be an integer: %v", key, err)
	}
	return value
}

func getEnvOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// getEnvAsIntOr parses an optional integer variable. A set but unparsable value is fatal.
func getEnvAsIntOr(key string, fallback int) int {
	valueStr, ok := os.LookupEnv(key)
	if !ok || valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be an integer: %v", key, err)
	}
	return value
}
