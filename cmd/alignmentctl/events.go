package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Daxiongmao87/alignment-correction-mcp/internal/model"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the raw event log",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List events in append order",
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, _ := cmd.Flags().GetString("type")
			since, _ := cmd.Flags().GetString("since")
			c, err := openCore()
			if err != nil {
				return err
			}
			defer c.close()

			var events []model.Event
			switch {
			case since != "":
				events = c.log.EventsSince(since)
			case typ != "":
				events = c.log.Events(model.EventType(typ))
			default:
				events = c.log.Events()
			}
			for _, evt := range events {
				fmt.Fprintf(os.Stdout, "%s\t%s\t%s\t%s\t%s\n",
					evt.EventID, evt.Timestamp.Format("2006-01-02 15:04:05.000"), evt.EventType, evt.Source, string(evt.Payload))
			}
			return nil
		},
	}
	listCmd.Flags().StringP("type", "t", "", "Filter by event type")
	listCmd.Flags().String("since", "", "Only events strictly after this event id")
	cmd.AddCommand(listCmd)

	return cmd
}
