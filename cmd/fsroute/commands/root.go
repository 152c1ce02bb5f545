package commands

import (
	"github.com/spf13/cobra"
)

var rootCmd *cobra.Command

func Execute(version string) error {
	rootCmd = &cobra.Command{
		Use:   "fsroute",
		Short: "fsroute - filesystem-convention HTTP routing",
		Long: `fsroute builds HTTP route tables from a directory tree: file names map
to methods (index, get, post, ...), $name directories become :name path
parameters, and a guarded static file server runs alongside.`,
		Version: version,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRoutesCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd.Execute()
}
