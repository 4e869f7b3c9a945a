// Command sparsebench churns a world's sparse sets and reports throughput,
// optionally under a pprof profile.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/tickworld/component"
	"github.com/lixenwraith/tickworld/core"
	"github.com/lixenwraith/tickworld/engine"
)

var (
	entities   = flag.Int("entities", 100_000, "Live entities per round")
	rounds     = flag.Int("rounds", 50, "Churn rounds")
	churn      = flag.Float64("churn", 0.25, "Fraction of entities destroyed and recreated per round")
	profMode   = flag.String("profile", "", "Profile mode: cpu|mem|block|mutex (empty disables)")
	profPath   = flag.String("profile-path", ".", "Directory for profile output")
	seed       = flag.Int64("seed", 1, "Random seed")
	jsonOutput = flag.Bool("json", false, "Log as JSON")
)

// result is one benchmark run summary
type result struct {
	Created   int
	Destroyed int
	Iterated  int
	Elapsed   time.Duration
}

func main() {
	flag.Parse()

	format := core.LogFormatText
	if *jsonOutput {
		format = core.LogFormatJSON
	}
	log := core.NewLogger(os.Stdout, "info", format)

	if stop := startProfile(*profMode, *profPath); stop != nil {
		defer stop()
	}

	res, err := churnWorld(*entities, *rounds, *churn, *seed)
	if err != nil {
		fmt.Fprintln(os.Stderr, eris.ToString(err, true))
		os.Exit(1)
	}

	ops := res.Created + res.Destroyed + res.Iterated
	log.WithFields(logrus.Fields{
		"created":   res.Created,
		"destroyed": res.Destroyed,
		"iterated":  res.Iterated,
		"elapsed":   res.Elapsed,
		"ns_per_op": float64(res.Elapsed.Nanoseconds()) / float64(max(ops, 1)),
	}).Info("sparse set churn complete")
}

// startProfile returns the profile stopper, nil when profiling is off
func startProfile(mode, path string) func() {
	var opt func(*profile.Profile)
	switch mode {
	case "cpu":
		opt = profile.CPUProfile
	case "mem":
		opt = profile.MemProfile
	case "block":
		opt = profile.BlockProfile
	case "mutex":
		opt = profile.MutexProfile
	default:
		return nil
	}
	return profile.Start(opt, profile.ProfilePath(path), profile.NoShutdownHook).Stop
}

// churnWorld fills a world, then repeatedly integrates positions and replaces a random fraction of entities
func churnWorld(n, rounds int, fraction float64, seed int64) (result, error) {
	var res result
	rng := rand.New(rand.NewSource(seed))
	w := engine.NewWorld(engine.WithAllocator(engine.WithRecycleCapacity(n)))

	spawn := func(count int) error {
		for range count {
			e, err := w.CreateEntity()
			if err != nil {
				return err
			}
			if err := engine.AddComponent(w, e, component.PositionComponent{X: rng.Float64(), Y: rng.Float64()}); err != nil {
				return err
			}
			if err := engine.AddComponent(w, e, component.KineticComponent{VelX: rng.Float64(), VelY: rng.Float64()}); err != nil {
				return err
			}
		}
		res.Created += count
		return nil
	}

	start := time.Now()
	if err := spawn(n); err != nil {
		return res, eris.Wrap(err, "initial spawn")
	}

	victims := make([]core.Entity, 0, int(float64(n)*fraction))
	for r := 0; r < rounds; r++ {
		kinetics := engine.Store[component.KineticComponent](w)
		positions := engine.Store[component.PositionComponent](w)
		for e, p := range positions.All() {
			if k, ok := kinetics.TryGet(e); ok {
				p.X += k.VelX
				p.Y += k.VelY
			}
			res.Iterated++
		}

		victims = victims[:0]
		for _, e := range positions.Entities() {
			if rng.Float64() < fraction {
				victims = append(victims, e)
			}
		}
		res.Destroyed += w.DestroyEntities(victims)

		if err := spawn(len(victims)); err != nil {
			return res, eris.Wrapf(err, "round %d respawn", r)
		}
	}
	res.Elapsed = time.Since(start)
	return res, nil
}
