package commands

import (
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/distbuilder/internal/files"
)

// FilesCmd implements the 'files' command.
type FilesCmd struct {
	TargetFlags `embed:""`
	Format      string `help:"Output format" enum:"text,yaml" default:"text"`
}

func (f *FilesCmd) Run(g *Global, root *CLI) error {
	records, err := files.Collect(root.NewBuilder(g, f.Target).Files())
	if err != nil {
		return err
	}
	for i := range records {
		records[i].DistributionPath = filepath.ToSlash(records[i].DistributionPath)
	}

	switch f.Format {
	case "yaml":
		enc := yaml.NewEncoder(g.Out)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode records: %w", err)
		}
		return enc.Close()
	default:
		for _, r := range records {
			if _, err := fmt.Fprintf(g.Out, "%s\t%s\t%s\n", r.DistributionPath, r.Origin, r.Path); err != nil {
				return err
			}
		}
		return nil
	}
}
