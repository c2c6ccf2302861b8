package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/solatis/ntfyrelay/internal/core/db"
	"github.com/solatis/ntfyrelay/internal/types"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [delivery-id]",
	Short: "List recent deliveries, or show one by ID",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().String("topic", "", "only show deliveries for this topic")
	historyCmd.Flags().Int("limit", db.DefaultHistoryLimit, "maximum number of deliveries")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if dbURL == "" {
		return fmt.Errorf("--db-url required")
	}
	ctx := cmd.Context()

	database, err := db.Open(ctx, dbURL)
	if err != nil {
		return err
	}
	defer database.Close()

	store, err := db.NewHistoryStore(database)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())

	if len(args) == 1 {
		id, err := types.ParseDeliveryID(args[0])
		if err != nil {
			return fmt.Errorf("invalid delivery ID: %w", err)
		}
		d, ok, err := store.Get(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("delivery %s not found", id)
		}
		return enc.Encode(d)
	}

	topic, _ := cmd.Flags().GetString("topic")
	limit, _ := cmd.Flags().GetInt("limit")
	deliveries, err := store.List(ctx, topic, limit)
	if err != nil {
		return err
	}
	for _, d := range deliveries {
		if err := enc.Encode(d); err != nil {
			return err
		}
	}
	return nil
}
