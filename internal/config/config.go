package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DispatcherMemory = "memory"
	DispatcherRedis  = "redis"
)

var ErrUnknownDispatcher = errors.New("unknown dispatcher driver")

type Config struct {
	LogLevel   string     `yaml:"log-level"   env:"LOG_LEVEL"   env-default:"info"`
	HTTPPort   string     `yaml:"http-port"   env:"HTTP_PORT"   env-default:"9090"`
	SocketPort string     `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	PublicURL  string     `yaml:"public-url"  env:"PUBLIC_URL"  env-default:"http://localhost:8080"`
	Redis      Redis      `yaml:"redis"`
	Dispatcher Dispatcher `yaml:"dispatcher"`
	Room       Room       `yaml:"room"`
	WebSocket  WebSocket  `yaml:"websocket"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Dispatcher struct {
	Driver  string `yaml:"driver"  env:"DISPATCHER_DRIVER"  env-default:"memory"`
	Channel string `yaml:"channel" env:"DISPATCHER_CHANNEL" env-default:"tictactoe:events"`
}

type Room struct {
	CodeLength   int           `yaml:"code-length"   env:"ROOM_CODE_LENGTH"   env-default:"6"`
	IdleTimeout  time.Duration `yaml:"idle-timeout"  env:"ROOM_IDLE_TIMEOUT"  env-default:"0s"`
	ReapInterval time.Duration `yaml:"reap-interval" env:"ROOM_REAP_INTERVAL" env-default:"30s"`
}

type WebSocket struct {
	SendBuffer   int           `yaml:"send-buffer"   env:"WS_SEND_BUFFER"   env-default:"32"`
	ReadLimit    int64         `yaml:"read-limit"    env:"WS_READ_LIMIT"    env-default:"4096"`
	PingInterval time.Duration `yaml:"ping-interval" env:"WS_PING_INTERVAL" env-default:"30s"`
}

// Load reads path when it exists and falls back to the environment alone.
func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)

	switch {
	case err == nil:
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("unable to load config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to load config from environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("unable to stat config file: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Config) Validate() error {
	switch that.Dispatcher.Driver {
	case DispatcherMemory, DispatcherRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDispatcher, that.Dispatcher.Driver)
	}

	if that.Room.CodeLength < 4 {
		return fmt.Errorf("room code length must be at least 4, got %d", that.Room.CodeLength)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}
