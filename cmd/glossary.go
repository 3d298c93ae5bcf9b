package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/subtitle-batch-translator/internal/glossary"
)

func newGlossaryCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Import, export or show the term glossary",
	}

	var into string
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Read a JSON or YAML glossary and store it as the active glossary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closeLog, err := loadConfig(root)
			if err != nil {
				return err
			}
			defer closeLog()

			g, err := glossary.Load(args[0])
			if err != nil {
				return err
			}
			dest := into
			if dest == "" {
				dest = cfg.Translate.GlossaryFile
			}
			if dest == "" {
				dest = glossary.DefaultFilenames[0]
			}
			if err := glossary.Save(dest, g); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries into %s\n", len(g), dest)
			return nil
		},
	}
	importCmd.Flags().StringVar(&into, "into", "", "Destination file (default: GLOSSARY_FILE or glossary.yaml)")

	exportCmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the active glossary as JSON or YAML, chosen by extension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := activeGlossary(root)
			if err != nil {
				return err
			}
			if err := glossary.Save(args[0], g); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", len(g), args[0])
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active glossary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := activeGlossary(root)
			if err != nil {
				return err
			}
			for _, e := range g {
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", e.Source, e.Target)
			}
			return nil
		},
	}

	cmd.AddCommand(importCmd, exportCmd, showCmd)
	return cmd
}

func activeGlossary(root *rootOptions) (glossary.Glossary, error) {
	cfg, closeLog, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	defer closeLog()

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	g, err := loadGlossary(cfg, filepath.Clean(wd))
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("no glossary configured and none found above %s", wd)
	}
	return g, nil
}
