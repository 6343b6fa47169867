package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctrlbench/ctrlbench/internal/config"
	"github.com/ctrlbench/ctrlbench/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list-controllers",
	Short: "List registered controller types",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadBenchConfig(resolveConfigPath())
		if err != nil {
			return err
		}

		specs := config.DefaultControllerSpecs()
		if cfg.ControllersFile != "" {
			loaded, err := config.LoadControllerSpecs(os.DirFS("."), cfg.ControllersFile)
			if err != nil {
				return err
			}
			for typeID, spec := range loaded {
				specs[typeID] = spec
			}
		}

		for _, typeID := range registry.Builtin().Types() {
			spec, ok := specs[typeID]
			if !ok {
				fmt.Printf("%s\n", typeID)
				continue
			}
			fmt.Printf("%s\t%s: %s\n", typeID, spec.Role, spec.Goal)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
