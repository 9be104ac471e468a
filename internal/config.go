package internal

import (
	"fmt"
	"time"
)

// Config gathers every knob of the core. Capacities and timing are
// consumed, not computed, by the runtime; nothing here is a hidden
// constant.
type Config struct {
	Host string `env:"HOST,required=true"`
	Port int    `env:"PORT,required=true"`

	AgentCapacity    int `env:"AGENT_CAPACITY,default=99"`
	ObserverCapacity int `env:"OBSERVER_CAPACITY,default=999"`

	// IdleTimeout is the silence budget before eviction; SweepInterval
	// must stay well below it to bound worst-case eviction latency.
	IdleTimeout   time.Duration `env:"IDLE_TIMEOUT,default=15m"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL,default=30s"`

	HistoryLimit         int           `env:"HISTORY_LIMIT,default=50"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=100ms"`
	ActivityLimit        int           `env:"ACTIVITY_LIMIT,default=200"`

	PersonaInterval time.Duration `env:"PERSONA_INTERVAL,default=5m"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=1m"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`

	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
