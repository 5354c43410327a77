package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v6"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/avanlint/particlemodel/simulation"
)

type Config struct {
	Production bool `env:"PRODUCTION" envDefault:"false"`
	// Levels are {trace, debug, info, warn, error, fatal, panic}.
	// See github.com/rs/zerolog@v1.19.0/log.go for possible values.
	LogLevel string `env:"LOGLEVEL" envDefault:"debug"`

	Particles int     `env:"PARTICLES" envDefault:"4096"`
	Bounds    float64 `env:"BOUNDS" envDefault:"100"`
	Seed      int64   `env:"SEED" envDefault:"1337"`
	Theta     float64 `env:"THETA" envDefault:"0.5"`
	DeltaTime float64 `env:"DELTA_TIME" envDefault:"0.1"`
	// Workers of 0 selects one worker per CPU.
	Workers int `env:"WORKERS" envDefault:"0"`
	// Orbits puts the initial particle cloud on a tangential orbit around
	// the central body instead of letting it collapse.
	Orbits bool `env:"ORBITS" envDefault:"true"`

	Steps      int `env:"STEPS" envDefault:"1000"`
	StatsEvery int `env:"STATS_EVERY" envDefault:"100"`
	// FrameEvery of 0 disables PNG frame dumps.
	FrameEvery int    `env:"FRAME_EVERY" envDefault:"0"`
	FrameDir   string `env:"FRAME_DIR" envDefault:"frames"`
}

func GetEnvConfig() Config {
	conf := Config{}
	env.Parse(&conf)
	return conf
}

// Run executes a full simulation according to the environment configuration:
// advance Steps timesteps, log summary statistics at the configured interval
// and optionally dump diagnostic frames.
func Run() error {
	conf := GetEnvConfig()
	level, err := zerolog.ParseLevel(conf.LogLevel)
	if err != nil {
		println("failed to parse LogLevel: '" + conf.LogLevel + "', setting to debug")
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	if !conf.Production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if conf.Workers <= 0 {
		conf.Workers = runtime.NumCPU()
	}
	log.Info().Msgf("Config: %#v", conf)

	sys, err := simulation.NewSystem(simulation.Config{
		NumParticles: conf.Particles,
		Bounds:       conf.Bounds,
		Seed:         conf.Seed,
		Theta:        conf.Theta,
		DeltaTime:    conf.DeltaTime,
		Workers:      conf.Workers,
	})
	if err != nil {
		return err
	}
	defer sys.Close()
	if conf.Orbits {
		simulation.InitializeOrbits(sys.Particles)
	}
	if conf.FrameEvery > 0 {
		if err := os.MkdirAll(conf.FrameDir, 0o755); err != nil {
			return errors.Wrap(err, "create frame directory")
		}
	}
	for step := 1; step <= conf.Steps; step++ {
		sys.Update()
		if conf.StatsEvery > 0 && step%conf.StatsEvery == 0 {
			logStats(step, sys)
		}
		if conf.FrameEvery > 0 && step%conf.FrameEvery == 0 {
			name := filepath.Join(conf.FrameDir, fmt.Sprintf("step-%06d.png", step))
			if err := simulation.DrawFrame(sys.Particles, sys.Extents(), sys.Bounds(), name, true); err != nil {
				log.Error().Msgf("failed to write frame %s: %v", name, err)
			}
		}
	}
	logStats(conf.Steps, sys)
	return nil
}

func logStats(step int, sys *simulation.System) {
	speeds := make([]float64, len(sys.Particles))
	for i := range sys.Particles {
		speeds[i] = sys.Particles[i].Vel.Magnitude()
	}
	mean, stddev := stat.MeanStdDev(speeds, nil)
	bounds := sys.Bounds()
	log.Info().Msgf(
		"step %d: t=%.2fs bound=%.4g speed{mean: %.4g, stddev: %.4g}",
		step, sys.Time(), bounds.UR.X(), mean, stddev,
	)
}
