package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config opciones para el logger.
type Config struct {
	Env    string    // development -> consola legible si Format está vacío
	Level  string    // trace, debug, info, warn, error
	Format string    // text | json; vacío = según Env
	Out    io.Writer // por defecto os.Stdout
}

// Logger wrapper sobre zerolog para inyección y consistencia.
type Logger struct {
	zl zerolog.Logger
}

// New crea el logger de la API y lo instala como logger global de zerolog.
func New(cfg Config) *Logger {
	zl := build(cfg)
	log.Logger = zl
	return &Logger{zl: zl}
}

// Setup logger para la CLI en stderr: "text" = consola legible, cualquier otro valor = JSON.
func Setup(format, level string) zerolog.Logger {
	if format != "text" {
		format = "json"
	}
	return build(Config{Level: level, Format: format, Out: os.Stderr})
}

func build(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	format := cfg.Format
	if format == "" {
		format = "json"
		if cfg.Env == "development" {
			format = "text"
		}
	}
	if format == "text" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
}

// parseLevel nivel de zerolog; vacío o desconocido = info.
func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Trace, Debug, Info, Warn, Error delegados a zerolog.
func (l *Logger) Trace() *zerolog.Event { return l.zl.Trace() }
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// With crea un sublogger con campos fijos.
func (l *Logger) With() zerolog.Context {
	return l.zl.With()
}

// Zerolog devuelve el logger interno; los componentes del pipeline lo reciben por valor.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}
