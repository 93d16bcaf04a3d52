package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/raphaelgruber/gepetto/internal/models"
	"github.com/spf13/cobra"
)

var askModel string

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Send a single prompt and print the reply",
	Long: `Send a single prompt through the proxy and print the reply.

The model flag is sent along with the prompt, but the proxy always answers
with its fixed backend model.

Examples:
  gepetto ask "What is a goroutine?"
  gepetto ask --proxy http://localhost:3000 "Summarize RFC 2616 in one line"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askModel, "model", "m", models.DefaultModelID, "model label sent to the proxy")
}

func runAsk(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("prompt is empty")
	}

	c := newClient()
	logger.Debug("ask", "proxy", c.BaseURL(), "model", askModel, "prompt_len", len(prompt))

	reply, err := c.Generate(context.Background(), askModel, prompt)
	if err != nil {
		logger.Error("ask failed", "error", err)
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}
