package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pdf-annotator/internal/layout"
)

func newLayoutCmd() *cobra.Command {
	var (
		pages  int
		spread string
		asYAML bool
	)
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the slot plan for a page count and spread mode",
		Example: `  annotate layout --pages 7 --spread odd
  annotate layout --pages 12 --spread even --yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pages < 1 {
				return fmt.Errorf("--pages must be at least 1")
			}
			mode, err := layout.ParseSpreadMode(spread)
			if err != nil {
				return err
			}
			slots := layout.Plan(pages, mode)

			w := cmd.OutOrStdout()
			if asYAML {
				enc := yaml.NewEncoder(w)
				defer enc.Close()
				return enc.Encode(map[string]interface{}{
					"spread": mode.String(),
					"slots":  slots,
				})
			}
			for i, s := range slots {
				nums := make([]string, len(s.Pages))
				for j, p := range s.Pages {
					nums[j] = fmt.Sprint(p)
				}
				labelColor.Fprintf(w, "slot %d:", i+1)
				fmt.Fprintf(w, " %s\n", strings.Join(nums, " | "))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&pages, "pages", "n", 0, "number of pages")
	cmd.Flags().StringVarP(&spread, "spread", "s", "none", "spread mode: none, odd or even")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the plan as YAML")
	return cmd
}
