package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/brettbedarf/sandfs/commands"
	"github.com/brettbedarf/sandfs/config"
	"github.com/brettbedarf/sandfs/internal/util"
	"github.com/brettbedarf/sandfs/persist"
	"github.com/brettbedarf/sandfs/server"
	"github.com/brettbedarf/sandfs/vfs"
)

func main() {
	// Parse command line arguments
	var (
		configPath string
		verbose    int
		script     string
		snapshot   string
		export     string
		mnt        string
		load       bool
		save       bool
		selftest   bool
		umount     bool
	)
	flag.StringVar(&configPath, "config", "", "Path to a YAML, JSON or TOML config file")
	flag.StringVar(&configPath, "c", "", "--config (shorthand)")
	flag.StringVar(&script, "script", "", "Path to a JSON array of commands to run, or - for stdin")
	flag.StringVar(&script, "s", "", "--script (shorthand)")
	flag.StringVar(&snapshot, "snapshot", "", "Snapshot file to import before anything else runs")
	flag.StringVar(&export, "export", "", "Write the final snapshot to this file")
	flag.StringVar(&mnt, "mount", "", "Mount a read-only view of the final tree here and wait for a signal")
	flag.StringVar(&mnt, "m", "", "--mount (shorthand)")
	flag.BoolVar(&load, "load", false, "Load the namespace from the configured backend at startup")
	flag.BoolVar(&save, "save", false, "Save the namespace to the configured backend before exiting")
	flag.BoolVar(&selftest, "selftest", false, "Run the engine self test and exit")
	flag.BoolVar(&umount, "umount", false,
		"Unmount the mount point first if needed. Useful for debuggers that don't exit properly.")
	flag.BoolVar(&umount, "u", false, "--umount (shorthand)")
	flag.IntVar(&verbose, "verbose", 3, "Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")
	flag.IntVar(&verbose, "v", 3, "--verbose (shorthand)")
	flag.Parse()

	util.InitializeLogger(util.LevelFromVerbosity(verbose))
	logger := util.GetLogger("main")

	cfg, err := loadConfig(configPath, verbose, verboseSet())
	if err != nil {
		logger.Fatal().Err(err).Str("config", configPath).Msg("Failed to load configuration")
	}
	util.InitializeLogger(cfg.LogLvl)
	logger = util.GetLogger("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	engine := vfs.New(cfg)
	logger.Info().Str("engine", engine.ID()).Str("version", engine.Version()).Msg("SandFS engine initialized")

	if selftest {
		if err := engine.SelfTest(); err != nil {
			logger.Fatal().Err(err).Msg("Self test failed")
		}
		logger.Info().Msg("Self test passed")
		return
	}

	if ns := cfg.Persistence.Namespace; ns != "" {
		persist.RegisterBuiltins()
		backend, err := persist.New(cfg.Persistence)
		if err != nil {
			logger.Fatal().Err(err).Str("backend", cfg.Persistence.Backend).Msg("Failed to create persistence backend")
		}
		if err := engine.ConfigurePersistence(ns, backend); err != nil {
			logger.Fatal().Err(err).Msg("Failed to configure persistence")
		}
		if load {
			if err := engine.Load(ctx); err != nil && !errors.Is(err, vfs.ErrNotFound) {
				logger.Error().Err(err).Str("namespace", ns).Msg("Failed to load namespace")
			}
		}
	} else if load || save {
		logger.Warn().Msg("No persistence namespace configured; -load and -save are ignored")
	}

	if snapshot != "" {
		data, err := os.ReadFile(snapshot)
		if err != nil {
			logger.Fatal().Err(err).Str("snapshot", snapshot).Msg("Failed to read snapshot file")
		}
		if err := engine.Import(string(data)); err != nil {
			logger.Fatal().Err(err).Str("snapshot", snapshot).Msg("Failed to import snapshot")
		}
		logger.Debug().Str("snapshot", snapshot).Msg("Snapshot imported")
	}

	if script != "" {
		if err := runScript(ctx, engine, script, os.Stdout); err != nil {
			logger.Error().Err(err).Str("script", script).Msg("Script aborted")
		}
	}

	if export != "" {
		text, err := engine.Export()
		if err != nil {
			logger.Error().Err(err).Msg("Failed to export snapshot")
		} else if err := os.WriteFile(export, []byte(text), 0o644); err != nil {
			logger.Error().Err(err).Str("export", export).Msg("Failed to write snapshot file")
		}
	}

	if save && engine.PersistenceEnabled() {
		if err := engine.Save(context.WithoutCancel(ctx)); err != nil {
			logger.Error().Err(err).Msg("Failed to save namespace")
		}
	}

	if mnt != "" {
		serve(ctx, cfg, engine, mnt, umount)
	}

	if totals, err := engine.Metrics().Totals(); err == nil {
		logger.Info().Interface("metrics", totals).Msg("Engine summary")
	}
}

// loadConfig layers the config file, SANDFS_* environment variables and an
// explicit -v flag over the defaults, in that order.
func loadConfig(path string, verbose int, verboseSet bool) (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	if path != "" {
		var err error
		if cfg, err = config.NewConfigFromFile(path); err != nil {
			return nil, err
		}
	}
	env, err := config.LoadEnvOverride()
	if err != nil {
		return nil, err
	}
	cfg.Merge(env)
	if verboseSet {
		cfg.Merge(&config.ConfigOverride{LogLvl: &verbose})
	}
	return cfg, nil
}

func verboseSet() bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "v" || f.Name == "verbose" {
			set = true
		}
	})
	return set
}

func runScript(ctx context.Context, engine *vfs.Engine, path string, out io.Writer) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}

	results, runErr := commands.Run(ctx, engine, data)
	rendered, err := commands.Marshal(results)
	if err != nil {
		return err
	}
	if _, err := out.Write(append(rendered, '\n')); err != nil {
		return err
	}
	return runErr
}

func serve(ctx context.Context, cfg *config.Config, engine *vfs.Engine, mnt string, umount bool) {
	logger := util.GetLogger("main")
	if umount {
		// we ignore error here if not already mounted
		exec.Command("fusermount", "-u", mnt).Run() // nolint:errcheck
	}

	view := server.New(cfg, engine)
	if err := view.Serve(mnt); err != nil {
		logger.Fatal().Err(err).Str("mountpoint", mnt).Msg("Failed to mount filesystem")
	}
	logger.Info().Str("mountpoint", mnt).Msg("Filesystem mounted successfully")

	<-ctx.Done()
	logger.Info().Msg("Received signal, unmounting filesystem")
	if err := view.Unmount(); err != nil {
		logger.Error().Err(err).Msg("Failed to unmount filesystem")
	} else {
		logger.Info().Msg("Filesystem unmounted successfully")
	}
}
