package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/raphaelgruber/gepetto/internal/models"
	"github.com/spf13/cobra"
)

var modelsRemote bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the model selector entries",
	Long: `List the entries of the model selector.

The selection is display-only: the proxy always substitutes its fixed model.
Use --remote to list the catalog served by the proxy instead of the local one.`,
	Args: cobra.NoArgs,
	RunE: runModels,
}

func init() {
	modelsCmd.Flags().BoolVar(&modelsRemote, "remote", false, "fetch the catalog from the proxy")
}

func runModels(cmd *cobra.Command, args []string) error {
	var (
		options []models.ModelOption
		def     = models.DefaultModelID
		err     error
	)

	if modelsRemote {
		options, def, err = newClient().Models(context.Background())
		if err != nil {
			return fmt.Errorf("fetch models: %w", err)
		}
	} else {
		options, err = loadCatalog()
		if err != nil {
			return err
		}
	}

	printModels(cmd.OutOrStdout(), options, def)
	return nil
}

func printModels(w io.Writer, options []models.ModelOption, def string) {
	fmt.Fprintf(w, "  %-12s %-16s %s\n", "ID", "NAME", "DESCRIPTION")
	for _, m := range options {
		marker := " "
		if m.ID == def {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-12s %-16s %s\n", marker, m.ID, m.Name, m.Description)
	}
	fmt.Fprintln(w, "\n(display only: the proxy always uses its fixed backend model)")
}
