package configs

import (
	"errors"
	"flag"
	"fmt"
	"math"
)

type Client struct {
	PlayerName     string `yaml:"player_name"`
	Port           int    `yaml:"port"`
	ServerAddress  string `yaml:"server_address"`
	DisplayAddress string `yaml:"display_address"`
	LogLevel       string `yaml:"log_level"`
}

func DefaultClient() *Client {
	return &Client{
		PlayerName: "robot",
		LogLevel:   "info",
	}
}

func (c *Client) applyEnv() error {
	envString("PLAYER_NAME", &c.PlayerName)
	envString("SERVER_ADDRESS", &c.ServerAddress)
	envString("DISPLAY_ADDRESS", &c.DisplayAddress)
	envString("LOG_LEVEL", &c.LogLevel)
	return envInt("PORT", &c.Port)
}

func (c *Client) flags() (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet("robots-client", flag.ContinueOnError)
	path := fs.String("config", "", "YAML file with client parameters")
	fs.StringVar(&c.PlayerName, "player-name", c.PlayerName, "name sent in Join")
	fs.IntVar(&c.Port, "port", c.Port, "UDP port the display sends input to")
	fs.StringVar(&c.ServerAddress, "server-address", c.ServerAddress, "game server host:port")
	fs.StringVar(&c.DisplayAddress, "gui-address", c.DisplayAddress, "display host:port")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "trace, debug, info, warn or error")
	return fs, path
}

func LoadClient(args []string) (*Client, error) {
	cfg := DefaultClient()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	fs, path := cfg.flags()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *path != "" {
		cfg = DefaultClient()
		if err := cfg.applyEnv(); err != nil {
			return nil, err
		}
		if err := loadFile(*path, cfg); err != nil {
			return nil, err
		}
		fs, _ = cfg.flags()
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

func (c *Client) Validate() error {
	var errs []error
	if len(c.PlayerName) > 255 {
		errs = append(errs, fmt.Errorf("%w: player name longer than 255 bytes", ErrInvalidConfig))
	}
	if c.Port < 0 || c.Port > math.MaxUint16 {
		errs = append(errs, fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port))
	}
	if c.ServerAddress == "" {
		errs = append(errs, fmt.Errorf("%w: server address is required", ErrInvalidConfig))
	}
	if c.DisplayAddress == "" {
		errs = append(errs, fmt.Errorf("%w: display address is required", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}
