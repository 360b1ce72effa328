package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"
)

const (
	LevelFlagName  = "log.level"
	FormatFlagName = "log.format"
	ColorFlagName  = "log.color"
)

type FormatType string

const (
	FormatText     FormatType = "text"
	FormatTerminal FormatType = "terminal"
	FormatLogFmt   FormatType = "logfmt"
	FormatJSON     FormatType = "json"
)

var formats = []FormatType{FormatText, FormatTerminal, FormatLogFmt, FormatJSON}

func (ft FormatType) String() string {
	return string(ft)
}

func FormatFromString(s string) (FormatType, error) {
	for _, f := range formats {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unrecognized log format: %q", s)
}

// LevelFromString returns the appropriate level from a string name.
func LevelFromString(lvlString string) (slog.Level, error) {
	switch strings.ToLower(lvlString) {
	case "trace", "trce":
		return log.LevelTrace, nil
	case "debug", "dbug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error", "eror":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return log.LevelDebug, fmt.Errorf("unknown level: %v", lvlString)
	}
}

type CLIConfig struct {
	Level  slog.Level
	Color  bool
	Format FormatType
}

func DefaultCLIConfig() CLIConfig {
	return CLIConfig{
		Level:  log.LevelInfo,
		Format: FormatText,
	}
}

func CLIFlags(envPrefix string) []cli.Flag {
	return CLIFlagsWithCategory(envPrefix, "")
}

func CLIFlagsWithCategory(envPrefix string, category string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     LevelFlagName,
			Usage:    "The lowest log level that will be output",
			Value:    "info",
			EnvVars:  []string{envPrefix + "_LOG_LEVEL"},
			Category: category,
		},
		&cli.StringFlag{
			Name:     FormatFlagName,
			Usage:    "Format the log output. Supported formats: 'text', 'terminal', 'logfmt', 'json'",
			Value:    string(FormatText),
			EnvVars:  []string{envPrefix + "_LOG_FORMAT"},
			Category: category,
		},
		&cli.BoolFlag{
			Name:     ColorFlagName,
			Usage:    "Color the log output if in terminal mode",
			EnvVars:  []string{envPrefix + "_LOG_COLOR"},
			Category: category,
		},
	}
}

func ReadCLIConfig(ctx *cli.Context) (CLIConfig, error) {
	cfg := DefaultCLIConfig()
	lvl, err := LevelFromString(ctx.String(LevelFlagName))
	if err != nil {
		return cfg, err
	}
	format, err := FormatFromString(ctx.String(FormatFlagName))
	if err != nil {
		return cfg, err
	}
	cfg.Level = lvl
	cfg.Format = format
	cfg.Color = ctx.Bool(ColorFlagName)
	return cfg, nil
}

// AppOut is where logs go. Stdout is reserved for command output.
func AppOut(ctx *cli.Context) io.Writer {
	if ctx != nil && ctx.App != nil && ctx.App.ErrWriter != nil {
		return ctx.App.ErrWriter
	}
	return os.Stderr
}

func NewLogHandler(wr io.Writer, cfg CLIConfig) slog.Handler {
	var h slog.Handler
	switch cfg.Format {
	case FormatJSON:
		h = log.JSONHandlerWithLevel(wr, cfg.Level)
	case FormatLogFmt:
		h = log.LogfmtHandlerWithLevel(wr, cfg.Level)
	case FormatTerminal:
		h = log.NewTerminalHandlerWithLevel(wr, cfg.Level, cfg.Color)
	default:
		h = log.NewTerminalHandlerWithLevel(wr, cfg.Level, false)
	}
	return h
}

func NewLogger(wr io.Writer, cfg CLIConfig) log.Logger {
	return log.NewLogger(NewLogHandler(wr, cfg))
}

// SetGlobalLogHandler makes log.Root() write through h.
func SetGlobalLogHandler(h slog.Handler) {
	log.SetDefault(log.NewLogger(h))
}
