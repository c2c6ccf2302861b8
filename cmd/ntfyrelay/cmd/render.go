package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/solatis/ntfyrelay/internal/relay"
	"github.com/solatis/ntfyrelay/internal/types"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <topic> [event.json]",
	Short: "Evaluate an event against a topic without delivering it",
	Long: `render runs one event through the topic's filters and templates and prints
the outcome as JSON. The event is read from the file argument or stdin.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry(slog.Default())
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 2 && args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open event: %w", err)
		}
		defer f.Close()
		in = f
	}

	data, err := io.ReadAll(io.LimitReader(in, types.MaxPayloadSize+1))
	if err != nil {
		return fmt.Errorf("failed to read event: %w", err)
	}
	if len(data) > types.MaxPayloadSize {
		return types.ErrPayloadTooLarge
	}
	event, err := types.DecodeEvent(data)
	if err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	outcome := relay.Process(event, registry.Topic(args[0]))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(outcome)
}
