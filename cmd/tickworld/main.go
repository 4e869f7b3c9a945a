// Command tickworld runs the glyph demo on the tick driver, rendering to the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/tickworld/component"
	"github.com/lixenwraith/tickworld/config"
	"github.com/lixenwraith/tickworld/core"
	"github.com/lixenwraith/tickworld/parameter"
	"github.com/lixenwraith/tickworld/render"
)

const logFileName = "tickworld.log"

var (
	envFile  = flag.String("env", ".env", "Settings file, overridden by TICKWORLD_* variables")
	headless = flag.Duration("headless", 0, "Run without a terminal for the given duration and log the result")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, eris.ToString(err, true))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}

	out, closeLog, err := logOutput(cfg.LogDir, *headless > 0)
	if err != nil {
		return err
	}
	defer closeLog()

	log := core.NewLogger(out, cfg.LogLevel, cfg.LogFormat)
	core.SetCrashLogger(log)

	if *headless > 0 {
		return runHeadless(cfg, log, *headless)
	}
	return runTerminal(cfg, log)
}

// logOutput picks the log sink: a rotated file under dir, stderr when headless, otherwise nothing
func logOutput(dir string, headless bool) (io.Writer, func(), error) {
	if dir != "" {
		f, err := core.OpenLogFile(dir, logFileName)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	}
	if headless {
		return os.Stderr, func() {}, nil
	}
	return io.Discard, func() {}, nil
}

func runHeadless(cfg *config.Config, log logrus.FieldLogger, d time.Duration) error {
	a, err := newApp(cfg, log, component.ArenaResource{}, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.start(ctx); err != nil {
		return err
	}
	if a.metronome != nil {
		if err := a.metronome.Initialize(); err != nil {
			log.WithError(err).Warn("audio unavailable, continuing without metronome")
		}
	}

	time.Sleep(d)
	if err := a.stop(); err != nil {
		return err
	}
	log.WithField("status", a.status.Snapshot()).Info("headless run complete")
	return nil
}

func runTerminal(cfg *config.Config, log logrus.FieldLogger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return eris.Wrap(err, "create screen")
	}
	if err := screen.Init(); err != nil {
		return eris.Wrap(err, "init screen")
	}
	defer screen.Fini()
	core.SetCrashHandler(func(any) { screen.Fini() })

	a, err := newApp(cfg, log, render.ArenaFor(screen), nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.start(ctx); err != nil {
		return err
	}
	if a.metronome != nil {
		if err := a.metronome.Initialize(); err != nil {
			log.WithError(err).Warn("audio unavailable, continuing without metronome")
		}
	}

	renderer := render.NewTerminalRenderer(screen, a.world, a.status)
	core.Go(func() {
		renderer.Run(ctx, parameter.FrameUpdateInterval, a.driver.Clock().IsPaused)
	})

	for {
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventResize:
			screen.Sync()
			a.resize(render.ArenaFor(screen))
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q':
				return a.stop()
			case ev.Rune() == 'p':
				a.togglePause()
			case ev.Rune() == 'm' && a.metronome != nil:
				a.metronome.Toggle()
			}
		case nil:
			return a.stop()
		}
	}
}
