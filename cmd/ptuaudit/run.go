package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jhoicas/ptu-audit/internal/bootstrap"
	"github.com/jhoicas/ptu-audit/internal/domain/ptu"
	"github.com/jhoicas/ptu-audit/internal/exitcode"
)

var runOpts struct {
	Folder   string
	Auditors []string
	Prepare  bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Import a folder of invoices and distribute them among auditors",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runOpts.Folder, "folder", "", "Folder containing the invoice ZIP files (required)")
	f.StringArrayVar(&runOpts.Auditors, "auditor", nil, "Auditor name (repeat for each auditor)")
	f.BoolVar(&runOpts.Prepare, "prepare", false, "Extract each auditor's XML into Correção XML after distributing")
	_ = runCmd.MarkFlagRequired("folder")
	_ = runCmd.MarkFlagRequired("auditor")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, log := setup()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.NewComponents(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("initialization failed")
		os.Exit(exitcode.DBConnError)
	}
	defer components.Close()
	svc := components.Service

	imp, err := svc.Import(ctx, runOpts.Folder)
	if err != nil {
		log.Error().Err(err).Msg("import failed")
		os.Exit(exitFor(err))
	}
	fmt.Printf("Importação: %d de %d faturas, %d guias relevantes, %d falhas, %d duplicadas\n",
		imp.Imported, imp.ArchivesFound, imp.Guides, len(imp.Failures), len(imp.Duplicates))
	if imp.ArchivesFound == 0 {
		log.Error().Str("folder", runOpts.Folder).Msg("nenhum arquivo .zip encontrado")
		os.Exit(exitcode.ValidationError)
	}

	dist, err := svc.Distribute(ctx, runOpts.Auditors)
	if err != nil {
		log.Error().Err(err).Msg("distribution failed")
		os.Exit(exitFor(err))
	}
	for _, a := range dist.Plan.Assignments {
		fmt.Printf("  %-30s %4d faturas  R$ %s\n", a.Auditor, a.TotalCount, ptu.FormatValue(a.TotalValue))
	}
	if dist.ReportPath != "" {
		fmt.Printf("Planilha: %s\n", dist.ReportPath)
	}
	for _, w := range dist.Warnings {
		log.Warn().Msg(w)
	}

	partial := len(imp.Failures) > 0 || len(dist.Warnings) > 0
	if runOpts.Prepare {
		for _, a := range dist.Plan.Assignments {
			corr, err := svc.PrepareCorrection(ctx, a.Auditor)
			if err != nil {
				log.Error().Err(err).Str("auditor", a.Auditor).Msg("correction preparation failed")
				partial = true
				continue
			}
			partial = partial || len(corr.Failures) > 0
			fmt.Printf("Correção %s: %d XML em %s\n", a.Auditor, corr.Extracted, corr.Directory)
		}
	}

	if partial {
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
