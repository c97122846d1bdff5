package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/ptu-audit/internal/exitcode"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/ptuxml"
)

var digestFile string

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Print the content hash of a .051 without modifying it",
	RunE:  runDigest,
}

func init() {
	digestCmd.Flags().StringVar(&digestFile, "file", "", "Path to the .051 document (required)")
	_ = digestCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(digestCmd)
}

func runDigest(cmd *cobra.Command, args []string) error {
	_, log := setup()

	data, err := os.ReadFile(digestFile)
	if err != nil {
		log.Error().Err(err).Msg("failed to read file")
		os.Exit(exitcode.UsageError)
	}
	doc, err := ptuxml.Parse(data)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse document")
		os.Exit(exitcode.ValidationError)
	}
	if doc.Recovered {
		log.Warn().Str("file", digestFile).Msg("malformed XML; digest computed over the recovered tree")
	}
	digest, err := ptuxml.Digest(doc)
	if err != nil {
		log.Error().Err(err).Msg("digest failed")
		os.Exit(exitcode.ValidationError)
	}

	current := ptuxml.CurrentHash(doc)
	fmt.Printf("hash calculado: %s\n", digest)
	if current == "" {
		fmt.Println("hash atual:     (ausente)")
	} else {
		fmt.Printf("hash atual:     %s\n", current)
	}
	if fp, err := ptuxml.Fingerprint(data); err == nil {
		fmt.Printf("fingerprint:    %s\n", fp)
	} else {
		log.Warn().Err(err).Msg("fingerprint failed")
	}

	if current != "" && current != digest {
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
