package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/peterbourgon/ff/v3"
	"github.com/shimmeringbee/logwrap"
	"os"
	"path/filepath"
)

const DefaultDirectoryPermissions = 0700

const EnvironmentPrefix = "PANELBRIDGE"

type Directories struct {
	Config string
	Data   string
	Log    string
}

func (d Directories) Panels() string {
	return filepath.Join(d.Config, "panels")
}

func (d Directories) Interfaces() string {
	return filepath.Join(d.Config, "interfaces")
}

func (d Directories) Logging() string {
	return filepath.Join(d.Config, "logging")
}

func enumerateDirectories(ctx context.Context, l logwrap.Logger) Directories {
	directories, err := parseDirectories(os.Args[1:])
	if err != nil {
		l.LogFatal(ctx, "Failed to parse environment/command line arguments.", logwrap.Err(err))
	}

	if err := directories.create(); err != nil {
		l.LogFatal(ctx, "Failed to initialise directories.", logwrap.Err(err))
	}

	return directories
}

// parseDirectories reads flags, then PANELBRIDGE_ prefixed environment variables, then an optional flag file.
func parseDirectories(args []string) (Directories, error) {
	fs := flag.NewFlagSet("panelbridge", flag.ContinueOnError)

	defaultConfigDirectory, err := defaultDirectory("config")
	if err != nil {
		return Directories{}, fmt.Errorf("failed to construct default configuration directory: %w", err)
	}

	defaultDataDirectory, err := defaultDirectory("data")
	if err != nil {
		return Directories{}, fmt.Errorf("failed to construct default data directory: %w", err)
	}

	defaultLogDirectory, err := defaultDirectory("log")
	if err != nil {
		return Directories{}, fmt.Errorf("failed to construct default log directory: %w", err)
	}

	configDirectory := fs.String("config-directory", defaultConfigDirectory, "location of configuration files")
	dataDirectory := fs.String("data-directory", defaultDataDirectory, "location of data files")
	logDirectory := fs.String("log-directory", defaultLogDirectory, "location of log files")
	_ = fs.String("flags-file", "", "file of additional flags, one per line")

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix(EnvironmentPrefix), ff.WithConfigFileFlag("flags-file"), ff.WithConfigFileParser(ff.PlainParser)); err != nil {
		return Directories{}, err
	}

	return Directories{
		Config: *configDirectory,
		Data:   *dataDirectory,
		Log:    *logDirectory,
	}, nil
}

func (d Directories) create() error {
	for _, dir := range []string{d.Config, d.Data, d.Log, d.Panels(), d.Interfaces(), d.Logging()} {
		if err := os.MkdirAll(dir, DefaultDirectoryPermissions); err != nil {
			return fmt.Errorf("failed to initialise directory '%s': %w", dir, err)
		}
	}

	return nil
}

func defaultDirectory(t string) (string, error) {
	if configDir, err := os.UserConfigDir(); err != nil {
		return "", err
	} else {
		return filepath.Join(configDir, "shimmeringbee", "panelbridge", t), nil
	}
}
