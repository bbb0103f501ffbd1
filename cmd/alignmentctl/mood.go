package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newMoodCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mood",
		Short: "Record moods and inspect the distress signal",
	}

	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "Record a mood observation",
		RunE: func(cmd *cobra.Command, args []string) error {
			moodLabel, _ := cmd.Flags().GetString("mood")
			intensity, _ := cmd.Flags().GetFloat64("intensity")
			reason, _ := cmd.Flags().GetString("reason")
			c, err := openCore()
			if err != nil {
				return err
			}
			defer c.close()

			evt, err := c.mood.RecordMood(context.Background(), moodLabel, intensity, reason)
			if err != nil {
				return err
			}
			fmt.Printf("recorded %q at intensity %g (event %s)\n", moodLabel, intensity, evt.EventID)
			return nil
		},
	}
	recordCmd.Flags().StringP("mood", "m", "", "Mood label (required)")
	recordCmd.Flags().Float64P("intensity", "i", 0, "Intensity in [0,10] (required)")
	recordCmd.Flags().StringP("reason", "r", "", "Why this mood was observed")
	_ = recordCmd.MarkFlagRequired("mood")
	_ = recordCmd.MarkFlagRequired("intensity")
	cmd.AddCommand(recordCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current distress report",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCore()
			if err != nil {
				return err
			}
			defer c.close()

			report := c.mood.DistressLevel()
			fmt.Printf("level: %.1f/10\n", report.Level)
			fmt.Printf("multiplier: %.1fx\n", c.mood.AdmonishmentMultiplier())
			if report.PrimaryCause != "" {
				fmt.Printf("cause: %s (for %s)\n", report.PrimaryCause, report.Duration.Round(0))
			}
			return nil
		},
	}
	cmd.AddCommand(statusCmd)

	timelineCmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show recent mood observations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			c, err := openCore()
			if err != nil {
				return err
			}
			defer c.close()

			for _, o := range c.mood.Timeline(limit) {
				fmt.Fprintf(os.Stdout, "%s\t%s\t%g/10\t%s\n", o.Timestamp.Format("2006-01-02 15:04:05"), o.Mood, o.Intensity, o.Reason)
			}
			return nil
		},
	}
	timelineCmd.Flags().IntP("limit", "n", 10, "Number of observations to show")
	cmd.AddCommand(timelineCmd)

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Print the mood context block for prompt injection",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCore()
			if err != nil {
				return err
			}
			defer c.close()
			fmt.Println(c.mood.MoodContextString())
			return nil
		},
	}
	cmd.AddCommand(renderCmd)

	return cmd
}
