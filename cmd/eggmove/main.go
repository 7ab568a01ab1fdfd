package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/eggmove/eggmove/config"
	"github.com/eggmove/eggmove/shell"
)

var (
	GitVersion string
)

func setupLogging(debug bool) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	logger.Debug().Msg("Debug logging is on")
}

func writeMemProfile(path string) {
	f, err := os.Create(path)
	if err != nil {
		log.Err(err).Msg("could-not-create-memory-profile")
		return
	}
	defer f.Close()
	memstats := &runtime.MemStats{}
	runtime.ReadMemStats(memstats)
	log.Debug().Interface("memstats", memstats).Msg("memory-stats")
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Err(err).Msg("could-not-write-memory-profile")
		return
	}
	log.Info().Str("path", path).Msg("wrote-memory-profile")
}

func main() {
	os.Exit(run())
}

func run() int {
	// Relative data paths are resolved against the executable's directory
	// when they do not exist relative to the working directory.
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg := config.DefaultConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error loading config:", err)
		return shell.ExitUserError
	}
	setupLogging(cfg.GetBool(config.ConfigDebug))
	log.Debug().Interface("config", cfg.SanitizedSettings()).Msg("loaded-config")
	cfg.AdjustRelativePaths(exPath)

	if p := cfg.GetString(config.ConfigCPUProfile); p != "" {
		f, err := os.Create(p)
		if err != nil {
			panic("could not create CPU profile: " + err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic("could not start CPU profile: " + err.Error())
		}
		defer pprof.StopCPUProfile()
	}
	if p := cfg.GetString(config.ConfigMemProfile); p != "" {
		defer writeMemProfile(p)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	args := cfg.Args()
	if len(args) > 0 {
		// One-shot mode: run the command and exit with its code.
		sc := shell.NewOneShotController(cfg, exPath, GitVersion)
		sc.Execute(sig, shellquote.Join(args...))
		return sc.ExitCode()
	}

	fmt.Println("eggmove", GitVersion)
	sc := shell.NewShellController(cfg, exPath, GitVersion)
	go sc.Loop(sig)
	<-sig
	log.Info().Msg("got quit signal...")
	sc.Cleanup()
	return shell.ExitOK
}
