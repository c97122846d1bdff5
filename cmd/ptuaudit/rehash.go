package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/ptu-audit/internal/bootstrap"
	"github.com/jhoicas/ptu-audit/internal/exitcode"
)

var rehashFile string

var rehashCmd = &cobra.Command{
	Use:   "rehash",
	Short: "Recompute the content hash of a corrected .051 and rebuild its ZIP in Validação CMB",
	RunE:  runRehash,
}

func init() {
	rehashCmd.Flags().StringVar(&rehashFile, "file", "", "Path to <root>/Correção XML/<auditor>/<invoice>.051 (required)")
	_ = rehashCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(rehashCmd)
}

func runRehash(cmd *cobra.Command, args []string) error {
	cfg, log := setup()
	ctx := context.Background()

	components, err := bootstrap.NewComponents(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("initialization failed")
		os.Exit(exitcode.DBConnError)
	}
	defer components.Close()

	res, err := components.Service.SubstituteHash(ctx, rehashFile)
	if err != nil {
		msg := err.Error()
		if res != nil && res.Message != "" {
			msg = res.Message
		}
		log.Error().Err(err).Msg(msg)
		os.Exit(exitFor(err))
	}
	fmt.Println(res.Message)
	fmt.Printf("hash: %s\n", res.Digest)
	return nil
}
