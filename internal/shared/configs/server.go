package configs

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"time"

	"robots/internal/game"
)

type Server struct {
	ServerName      string   `yaml:"server_name"`
	Port            int      `yaml:"port"`
	PlayersCount    int      `yaml:"players_count"`
	SizeX           int      `yaml:"size_x"`
	SizeY           int      `yaml:"size_y"`
	GameLength      int      `yaml:"game_length"`
	ExplosionRadius int      `yaml:"explosion_radius"`
	BombTimer       int      `yaml:"bomb_timer"`
	InitialBlocks   int      `yaml:"initial_blocks"`
	TurnDurationMs  int      `yaml:"turn_duration"`
	Seed            int      `yaml:"seed"`
	HTTPAddr        string   `yaml:"http_addr"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	LogLevel        string   `yaml:"log_level"`
}

func DefaultServer() *Server {
	return &Server{
		ServerName:      "robots",
		Port:            2137,
		PlayersCount:    2,
		SizeX:           10,
		SizeY:           10,
		GameLength:      100,
		ExplosionRadius: 3,
		BombTimer:       5,
		InitialBlocks:   20,
		TurnDurationMs:  500,
		Seed:            int(uint32(time.Now().UnixNano())),
		LogLevel:        "info",
	}
}

func (c *Server) applyEnv() error {
	envString("SERVER_NAME", &c.ServerName)
	envString("HTTP_ADDR", &c.HTTPAddr)
	envString("LOG_LEVEL", &c.LogLevel)
	envList("ALLOWED_ORIGINS", &c.AllowedOrigins)
	for key, dst := range map[string]*int{
		"PORT":             &c.Port,
		"PLAYERS_COUNT":    &c.PlayersCount,
		"SIZE_X":           &c.SizeX,
		"SIZE_Y":           &c.SizeY,
		"GAME_LENGTH":      &c.GameLength,
		"EXPLOSION_RADIUS": &c.ExplosionRadius,
		"BOMB_TIMER":       &c.BombTimer,
		"INITIAL_BLOCKS":   &c.InitialBlocks,
		"TURN_DURATION":    &c.TurnDurationMs,
		"SEED":             &c.Seed,
	} {
		if err := envInt(key, dst); err != nil {
			return err
		}
	}
	return nil
}

func (c *Server) flags() (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet("robots-server", flag.ContinueOnError)
	path := fs.String("config", "", "YAML file with server parameters")
	fs.StringVar(&c.ServerName, "server-name", c.ServerName, "name announced in Hello")
	fs.IntVar(&c.Port, "port", c.Port, "TCP port to listen on")
	fs.IntVar(&c.PlayersCount, "players-count", c.PlayersCount, "players needed to start a game")
	fs.IntVar(&c.SizeX, "size-x", c.SizeX, "board width")
	fs.IntVar(&c.SizeY, "size-y", c.SizeY, "board height")
	fs.IntVar(&c.GameLength, "game-length", c.GameLength, "turns per game")
	fs.IntVar(&c.ExplosionRadius, "explosion-radius", c.ExplosionRadius, "bomb blast radius")
	fs.IntVar(&c.BombTimer, "bomb-timer", c.BombTimer, "turns until a bomb explodes")
	fs.IntVar(&c.InitialBlocks, "initial-blocks", c.InitialBlocks, "blocks placed at turn 0")
	fs.IntVar(&c.TurnDurationMs, "turn-duration", c.TurnDurationMs, "turn period in milliseconds")
	fs.IntVar(&c.Seed, "seed", c.Seed, "random generator seed")
	fs.StringVar(&c.HTTPAddr, "http-addr", c.HTTPAddr, "status and spectator HTTP address, empty to disable")
	fs.Var(listFlag{&c.AllowedOrigins}, "allowed-origins", "comma separated origins allowed on the HTTP surface")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "trace, debug, info, warn or error")
	return fs, path
}

// LoadServer resolves the server parameters from args and the environment.
func LoadServer(args []string) (*Server, error) {
	cfg := DefaultServer()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	fs, path := cfg.flags()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *path != "" {
		cfg = DefaultServer()
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

func (c *Server) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}
	check(len(c.ServerName) <= 255, "server name longer than 255 bytes")
	check(c.Port >= 0 && c.Port <= math.MaxUint16, "port %d out of range", c.Port)
	check(c.PlayersCount >= 1 && c.PlayersCount <= math.MaxUint8, "players count %d not in 1..255", c.PlayersCount)
	check(c.SizeX >= 1 && c.SizeX <= math.MaxUint16, "size x %d not in 1..65535", c.SizeX)
	check(c.SizeY >= 1 && c.SizeY <= math.MaxUint16, "size y %d not in 1..65535", c.SizeY)
	check(c.GameLength >= 0 && c.GameLength <= math.MaxUint16, "game length %d out of range", c.GameLength)
	check(c.ExplosionRadius >= 0 && c.ExplosionRadius <= math.MaxUint16, "explosion radius %d out of range", c.ExplosionRadius)
	check(c.BombTimer >= 1 && c.BombTimer <= math.MaxUint16, "bomb timer %d not in 1..65535", c.BombTimer)
	check(c.InitialBlocks >= 0 && c.InitialBlocks <= math.MaxUint16, "initial blocks %d out of range", c.InitialBlocks)
	check(c.TurnDurationMs > 0, "turn duration must be positive")
	check(c.Seed >= 0 && int64(c.Seed) <= math.MaxUint32, "seed %d out of range", c.Seed)
	return errors.Join(errs...)
}

func (c *Server) Rules() game.Rules {
	return game.Rules{
		SizeX:           uint16(c.SizeX),
		SizeY:           uint16(c.SizeY),
		GameLength:      uint16(c.GameLength),
		ExplosionRadius: uint16(c.ExplosionRadius),
		BombTimer:       uint16(c.BombTimer),
	}
}

func (c *Server) TurnDuration() time.Duration {
	return time.Duration(c.TurnDurationMs) * time.Millisecond
}
