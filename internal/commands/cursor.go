package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/runbridge/internal/cursor"
	"github.com/telhawk-systems/runbridge/internal/cursorstore"
)

func newCursorCommand(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cursor",
		Short: "Inspect or reset the persisted sensor cursor",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored cursor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			store, err := openCursorStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			raw, err := store.Load(cmd.Context(), cfg.CursorKey())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if raw == "" {
				fmt.Fprintf(out, "no cursor stored for %s\n", cfg.CursorKey())
				return nil
			}

			fmt.Fprintf(out, "raw: %s\n", raw)
			c, err := cursor.Decode(raw)
			if err != nil {
				fmt.Fprintf(out, "invalid: %v\n", err)
				return nil
			}
			if c.WindowStart != nil {
				fmt.Fprintf(out, "window_start: %s\n", cursor.Time(*c.WindowStart).UTC().Format("2006-01-02T15:04:05.000Z07:00"))
			}
			if c.WindowEnd != nil {
				fmt.Fprintf(out, "window_end: %s\n", cursor.Time(*c.WindowEnd).UTC().Format("2006-01-02T15:04:05.000Z07:00"))
			}
			if c.Offset != nil {
				fmt.Fprintf(out, "offset: %d\n", *c.Offset)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Delete the stored cursor so the next tick starts a fresh window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			store, err := openCursorStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			err = store.Delete(cmd.Context(), cfg.CursorKey())
			if errors.Is(err, cursorstore.ErrNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "no cursor stored for %s\n", cfg.CursorKey())
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cursor for %s reset\n", cfg.CursorKey())
			return nil
		},
	})

	return cmd
}
