// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/automaxprocs/maxprocs"

	"tome/internal/config"
	"tome/internal/version"
)

type command struct {
	run   func(cfg config.Config, fs *pflag.FlagSet) error
	flags func(fs *pflag.FlagSet)
	usage string
}

var commands = map[string]command{
	"info":   {usage: "info FILE", flags: infoFlags, run: runInfo},
	"files":  {usage: "files FILE", flags: filesFlags, run: runFiles},
	"magnet": {usage: "magnet FILE", flags: magnetFlags, run: runMagnet},
	"create": {usage: "create PATH -o OUT", flags: createFlags, run: runCreate},
	"verify": {usage: "verify FILE DIR", flags: verifyFlags, run: runVerify},
}

func main() {
	setupFlagsAndEnvParser()

	if viper.GetBool("version") {
		fmt.Println(version.Print())
		return
	}

	if viper.GetBool("build-info") {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			errExit("binary is built without module support")
		}

		fmt.Print(version.FormatBuildInfo(info))
		return
	}

	args := pflag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		errExit(fmt.Sprintf("unknown command %q", args[0]))
	}

	cfg := mustParseConfig()
	setupLogger(cfg)

	if runtime.GOOS == "linux" {
		if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
			log.Debug().Msgf(format, args...)
		})); err != nil {
			log.Warn().Err(err).Msg("failed to set GOMAXPROCS automatically")
		}
	}

	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: tome %s [flags]\n\n", cmd.usage)
		fs.PrintDefaults()
	}
	cmd.flags(fs)

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		errExit(err)
	}

	lo.Must0(viper.BindPFlags(fs), "failed to bind command flags")

	if err := cmd.run(cfg, fs); err != nil {
		errExit(err)
	}
}

func usage() {
	_, _ = fmt.Fprintln(os.Stderr, "Usage: tome [flags] <command> [args]")
	_, _ = fmt.Fprintln(os.Stderr, "\nCommands:")

	names := lo.Keys(commands)
	slices.Sort(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}

	_, _ = fmt.Fprintln(os.Stderr, "\nFlags:")
	pflag.PrintDefaults()
	_, _ = fmt.Fprintln(os.Stderr, "\nNote: command arguments and TOME_* env override config file, but won't change config file.")
}

func setupFlagsAndEnvParser() {
	pflag.String("config-file", "", "path to config file (default {user-config-dir}/tome/config.toml)")

	pflag.Bool("log-json", false, "log as json format")
	pflag.String("log-level", "", "log level (default from config, error)")

	pflag.Bool("version", false, "print version")
	pflag.Bool("build-info", false, "print go build info")

	pflag.CommandLine.SetInterspersed(false)
	pflag.Usage = usage

	// this avoids 'pflag: help requested' error when calling for help message.
	if len(os.Args) > 1 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		usage()
		os.Exit(0)
		return
	}

	pflag.Parse()

	viper.SetEnvPrefix("TOME")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	lo.Must0(viper.BindPFlags(pflag.CommandLine), "failed to parse combine argument with env")
}

func errExit(msg ...any) {
	_, _ = fmt.Fprintln(os.Stderr, msg...)
	os.Exit(1)
}

func parseLogLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}

	errExit(fmt.Sprintf("unknown log level %q, only trace/debug/info/warn/error is allowed", s))

	return zerolog.NoLevel
}

func setupLogger(cfg config.Config) {
	jsonLog := viper.GetBool("log-json") || cfg.Log.JSON

	logLevel := viper.GetString("log-level")
	if logLevel == "" {
		logLevel = cfg.Log.Level
	}

	var w io.Writer = os.Stderr

	if !jsonLog {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	log.Logger = log.Output(w).Level(parseLogLevel(logLevel))
}

func defaultConfigPath() string {
	d, err := os.UserConfigDir()
	if err != nil {
		errExit("failed to get user config directory, please set config file with --config-file manually", err)
	}

	return filepath.Join(d, "tome", "config.toml")
}

func mustParseConfig() config.Config {
	configFilePath := viper.GetString("config-file")
	if configFilePath == "" {
		configFilePath = defaultConfigPath()
	}

	cfg, err := config.LoadFromFile(configFilePath)
	if err != nil {
		errExit("failed to load config", err)
	}

	return cfg
}
