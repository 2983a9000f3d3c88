package config

import (
	"os"
	"strconv"
	"time"
)

// Game constants shared with the server. Grid dimensions are the base values;
// the renderer scales them by powers of two as the room fills up.
const (
	BaseGridW = 60
	BaseGridH = 30
	CellSize  = 20

	TickMs               = 120
	MaxPlayersPerRoom    = 100
	FieldScaleThreshold  = 8 // every 8 players the field doubles in each dimension
	MaxLocalPlayers      = 4
	RoomCodeLength       = 6
)

// Particle constants for the eat effect.
const (
	ParticleBurstCount = 12
	ParticleLifeFrames = 25
)

type Config struct {
	ServerURL string
	DebugAddr string
	DataPath  string

	ReconnectDelay    time.Duration
	ReconnectAttempts int

	JoinTimeout time.Duration

	DeviceType string
}

// Load reads the environment. Every field has a default so the client runs
// with no configuration at all.
func Load() Config {
	return Config{
		ServerURL:         getenv("ZMEYKA_SERVER_URL", "ws://localhost:8000/ws"),
		DebugAddr:         getenv("ZMEYKA_DEBUG_ADDR", "127.0.0.1:8790"),
		DataPath:          getenv("ZMEYKA_DATA_PATH", "zmeyka.db"),
		ReconnectDelay:    time.Duration(getenvInt("ZMEYKA_RECONNECT_DELAY_MS", 1000)) * time.Millisecond,
		ReconnectAttempts: getenvInt("ZMEYKA_RECONNECT_ATTEMPTS", 5),
		JoinTimeout:       time.Duration(getenvInt("ZMEYKA_JOIN_TIMEOUT_MS", 1000)) * time.Millisecond,
		DeviceType:        getenv("ZMEYKA_DEVICE_TYPE", "desktop"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
