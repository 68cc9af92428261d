package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func pagesCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pages",
		Short: "List the configured pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := global.registry()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			headerColor.Fprintf(out, "%-12s %-26s %-8s %s\n", "ID", "TITLE", "SOURCE", "STAGES")
			for _, p := range registry.All() {
				def := p.Definition()
				names := make([]string, len(def.Stages))
				for i, st := range def.Stages {
					names[i] = st.Name
				}
				fmt.Fprintf(out, "%-12s %-26s %-8s %s\n", p.ID(), truncate(p.Title(), 26), def.Source.Kind, strings.Join(names, " → "))
				if keys := p.GroupKeys(); len(keys) > 0 {
					groupColor.Fprintf(out, "%-12s group by: %s\n", "", strings.Join(keys, ", "))
				}
			}
			return nil
		},
	}
}
