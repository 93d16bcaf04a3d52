package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/raphaelgruber/gepetto/internal/chat"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatModelID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long: `Start an interactive chat with the model behind the proxy.

When stdin is not a terminal, every input line is sent as one prompt and the
reply is printed, which makes the command usable in pipes:

  echo "hello" | gepetto chat`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatModelID, "model", "m", "", "initially selected model label")
}

func runChat(cmd *cobra.Command, args []string) error {
	options, err := loadCatalog()
	if err != nil {
		return err
	}

	c := newClient()
	ctrl := chat.New(c, logger,
		chat.WithModels(options),
		chat.WithSelectedModel(chatModelID),
	)

	healthCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := c.Health(healthCtx); err != nil {
		logger.Warn("proxy health check failed", "proxy", c.BaseURL(), "error", err)
	}
	cancel()

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return runLineMode(context.Background(), ctrl, cmd.InOrStdin(), cmd.OutOrStdout())
	}
	return RunChat(ctrl, c)
}

// runLineMode submits each input line and prints the reply.
// Failed requests print nothing; the controller logs them.
func runLineMode(ctx context.Context, ctrl *chat.Controller, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		ctrl.SetInput(scanner.Text())

		if reply, ok := ctrl.Submit(ctx); ok {
			fmt.Fprintln(out, reply.Content)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}
