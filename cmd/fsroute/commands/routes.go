package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fsroute/fsroute/router"
)

func newRoutesCmd() *cobra.Command {
	var dir string
	var extensions []string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the routes a directory scan would produce",
		Long: `Routes scans a directory tree with the same rules the server uses at
startup and prints the method, route path, and source file of every
recognized route file. Recognized file names: ` + strings.Join(router.MethodNames(), ", ") + `.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files := router.Scan(dir, router.BuilderConfig{Extensions: extensions})
			if len(files) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no route files found under %s\n", dir)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "METHOD\tPATH\tFILE")
			for _, rf := range files {
				fmt.Fprintf(w, "%s\t%s\t%s\n", rf.Method, rf.Path, rf.File)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "routes", "routes directory to scan")
	cmd.Flags().StringSliceVarP(&extensions, "ext", "e", []string{".route"}, "route file extensions")

	return cmd
}
