package main

import (
	"errors"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jhoicas/ptu-audit/internal/application/audit"
	"github.com/jhoicas/ptu-audit/internal/domain"
	"github.com/jhoicas/ptu-audit/internal/domain/ptu"
	"github.com/jhoicas/ptu-audit/internal/exitcode"
	"github.com/jhoicas/ptu-audit/pkg/config"
	"github.com/jhoicas/ptu-audit/pkg/logger"
)

var opts struct {
	LogFormat    string
	ReferenceDir string
	Threshold    string
}

var rootCmd = &cobra.Command{
	Use:   "ptuaudit",
	Short: "Auditoria de faturas PTU A500",
	Long:  "Importa lotes de faturas PTU A500 (ZIP), aplica as regras de correção, distribui entre auditores e regenera o hash de conteúdo.",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.LogFormat, "log-format", "", "Log format: text or json (default LOG_FORMAT)")
	pf.StringVar(&opts.ReferenceDir, "reference-dir", "", "Directory with reference JSON files (default REFERENCE_DIR)")
	pf.StringVar(&opts.Threshold, "threshold", "", "Admission guide threshold, e.g. 25000,00 (default AUDIT_GUIDE_THRESHOLD)")
}

// setup carga la configuración, aplica los flags persistentes y crea el logger.
func setup() (*config.Config, zerolog.Logger) {
	cfg, err := config.Load()
	if err != nil {
		log := logger.Setup(opts.LogFormat, "info")
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if opts.LogFormat != "" {
		cfg.Audit.LogFormat = opts.LogFormat
	}
	log := logger.Setup(cfg.Audit.LogFormat, cfg.Audit.LogLevel)

	if opts.ReferenceDir != "" {
		cfg.Audit.ReferenceDir = opts.ReferenceDir
	}
	if opts.Threshold != "" {
		v, ok := ptu.ParseValue(opts.Threshold)
		if !ok || v.IsNegative() {
			log.Error().Str("threshold", opts.Threshold).Msg("--threshold must be a non-negative value")
			os.Exit(exitcode.UsageError)
		}
		cfg.Audit.GuideThreshold = v
	}
	return cfg, log
}

// exitFor traduce un error del servicio al código de salida.
func exitFor(err error) int {
	var pe *audit.PhaseError
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrEmptyDistribution):
		return exitcode.UsageError
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrDocumentNotFound),
		errors.Is(err, domain.ErrUnreadableDocument), errors.Is(err, domain.ErrDigestFailed):
		return exitcode.ValidationError
	case errors.As(err, &pe) && pe.Phase == audit.PhaseHash:
		return exitcode.ArchiveError
	default:
		return exitcode.ProcessError
	}
}
