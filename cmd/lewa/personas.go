package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yungbote/lewa-backend/internal/domain/tutor"
	"github.com/yungbote/lewa-backend/internal/gateway/persona"
)

var personasFile string

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "Validate and list the tutor persona table",
	Long: `personas loads the embedded persona table, or the file given with --file,
checks that every subject has both levels, and lists the result. It exits
non-zero when the table is invalid.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(personasFile)
		if err != nil {
			return err
		}
		return printRegistry(cmd, reg)
	},
}

func init() {
	personasCmd.Flags().StringVarP(&personasFile, "file", "f", "", "persona YAML to validate instead of the embedded table")
}

func loadRegistry(path string) (*persona.Registry, error) {
	if strings.TrimSpace(path) == "" {
		return persona.Default()
	}
	return persona.Load(path)
}

func printRegistry(cmd *cobra.Command, reg *persona.Registry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSUBJECT\tLEVEL\tPROMPT CHARS")
	for _, s := range reg.Subjects() {
		for _, lvl := range tutor.Levels() {
			p := reg.Lookup(tutor.SubjectKey{Subject: s.Name, Level: lvl})
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", s.ID, s.Name, lvl, len(p.SystemPrompt()))
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d subjects, %d personas: ok\n", len(reg.Subjects()), len(reg.Subjects())*len(tutor.Levels()))
	return nil
}
