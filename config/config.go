// Package config resolves runtime settings: parameter defaults, then .env
// files, then TICKWORLD_* environment variables.
package config

import (
	"errors"
	"io/fs"
	"math/bits"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"

	"github.com/lixenwraith/tickworld/core"
	"github.com/lixenwraith/tickworld/engine"
	"github.com/lixenwraith/tickworld/parameter"
)

// EnvPrefix namespaces every variable read by Load
const EnvPrefix = "TICKWORLD_"

// Config holds the resolved settings of a tickworld process
type Config struct {
	TPS             int
	PageSize        int
	MaxEntity       uint32
	RecycleCapacity int
	TickQueue       int
	Backpressure    engine.BackpressurePolicy
	CatchUp         engine.CatchUpPolicy
	MaxBurst        int

	LogLevel  string
	LogFormat core.LogFormat
	LogDir    string // empty logs to stderr

	Metronome bool
	Entities  int
}

// Default returns the configuration built from parameter constants
func Default() *Config {
	return &Config{
		TPS:             parameter.DefaultTPS,
		PageSize:        parameter.DefaultPageSize,
		MaxEntity:       parameter.DefaultMaxEntity,
		RecycleCapacity: parameter.DefaultRecycleCapacity,
		TickQueue:       parameter.DefaultTickQueueSize,
		Backpressure:    engine.DropNewest,
		CatchUp:         engine.CatchUpClamp,
		MaxBurst:        parameter.DefaultMaxBurst,
		LogLevel:        "info",
		LogFormat:       core.LogFormatJSON,
		Metronome:       false,
		Entities:        parameter.DefaultDemoEntities,
	}
}

// Load resolves the configuration. Missing .env files are skipped; with no
// paths, ./.env is tried. Process environment wins over file values.
func Load(paths ...string) (*Config, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	file := make(map[string]string)
	for _, p := range paths {
		vals, err := godotenv.Read(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, eris.Wrapf(err, "read env file %s", p)
		}
		// Earlier files win, matching godotenv.Load
		for k, v := range vals {
			if _, ok := file[k]; !ok {
				file[k] = v
			}
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			return v, true
		}
		v, ok := file[EnvPrefix+key]
		return v, ok
	}

	cfg := Default()
	p := parser{lookup: lookup}

	p.intVar(&cfg.TPS, "TPS")
	p.intVar(&cfg.PageSize, "PAGE_SIZE")
	p.uint32Var(&cfg.MaxEntity, "MAX_ENTITY")
	p.intVar(&cfg.RecycleCapacity, "RECYCLE_CAPACITY")
	p.intVar(&cfg.TickQueue, "TICK_QUEUE")
	p.intVar(&cfg.MaxBurst, "MAX_BURST")
	p.intVar(&cfg.Entities, "ENTITIES")
	p.boolVar(&cfg.Metronome, "METRONOME")
	p.stringVar(&cfg.LogLevel, "LOG_LEVEL")
	p.stringVar(&cfg.LogDir, "LOG_DIR")

	if v, ok := lookup("LOG_FORMAT"); ok {
		switch f := core.LogFormat(strings.ToLower(v)); f {
		case core.LogFormatJSON, core.LogFormatText:
			cfg.LogFormat = f
		default:
			p.fail("LOG_FORMAT", eris.Errorf("unknown log format %q", v))
		}
	}
	if v, ok := lookup("BACKPRESSURE"); ok {
		bp, err := engine.ParseBackpressure(v)
		if err != nil {
			p.fail("BACKPRESSURE", err)
		}
		cfg.Backpressure = bp
	}
	if v, ok := lookup("CATCHUP"); ok {
		cu, err := engine.ParseCatchUp(v)
		if err != nil {
			p.fail("CATCHUP", err)
		}
		cfg.CatchUp = cu
	}

	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that the engine would otherwise silently adjust
func (c *Config) Validate() error {
	switch {
	case c.TPS <= 0:
		return eris.Errorf("config: TPS must be positive, got %d", c.TPS)
	case c.PageSize <= 0 || bits.OnesCount(uint(c.PageSize)) != 1:
		return eris.Errorf("config: PAGE_SIZE must be a power of two, got %d", c.PageSize)
	case c.MaxEntity == 0:
		return eris.New("config: MAX_ENTITY must be positive")
	case c.RecycleCapacity < 0:
		return eris.Errorf("config: RECYCLE_CAPACITY must not be negative, got %d", c.RecycleCapacity)
	case c.TickQueue <= 0:
		return eris.Errorf("config: TICK_QUEUE must be positive, got %d", c.TickQueue)
	case c.MaxBurst <= 0:
		return eris.Errorf("config: MAX_BURST must be positive, got %d", c.MaxBurst)
	case c.Entities < 0:
		return eris.Errorf("config: ENTITIES must not be negative, got %d", c.Entities)
	}
	return nil
}

// parser records the first conversion failure
type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = eris.Wrapf(err, "config: invalid %s%s", EnvPrefix, key)
	}
}

func (p *parser) intVar(dst *int, key string) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		p.fail(key, err)
		return
	}
	*dst = n
}

func (p *parser) uint32Var(dst *uint32, key string) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
	if err != nil {
		p.fail(key, err)
		return
	}
	*dst = uint32(n)
}

func (p *parser) boolVar(dst *bool, key string) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		p.fail(key, err)
		return
	}
	*dst = b
}

func (p *parser) stringVar(dst *string, key string) {
	if v, ok := p.lookup(key); ok {
		*dst = strings.TrimSpace(v)
	}
}
