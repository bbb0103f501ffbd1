package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Daxiongmao87/alignment-correction-mcp/internal/constraints"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/model"
)

func newConstraintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "constraint",
		Short: "Manage behavioral constraints",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a constraint",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, _ := cmd.Flags().GetString("key")
			value, _ := cmd.Flags().GetString("value")
			typ, _ := cmd.Flags().GetString("type")
			c, err := openCore()
			if err != nil {
				return err
			}
			defer c.close()

			req := constraints.AddRequest{Key: key, Value: value, Type: model.ConstraintType(typ)}
			if cmd.Flags().Changed("strength") {
				strength, _ := cmd.Flags().GetFloat64("strength")
				req.Strength = &strength
			}
			if cmd.Flags().Changed("ttl") {
				ttl, _ := cmd.Flags().GetInt64("ttl")
				req.TTLSeconds = &ttl
			}
			rec, err := c.constraints.Add(context.Background(), req)
			if err != nil {
				return err
			}
			fmt.Printf("added %s constraint %q (event %s)\n", rec.Type, rec.Key, rec.SourceEventID)
			return nil
		},
	}
	addCmd.Flags().StringP("key", "k", "", "Constraint key (required)")
	addCmd.Flags().StringP("value", "v", "", "Constraint rule text (required)")
	addCmd.Flags().StringP("type", "t", "soft", "Constraint type: hard or soft")
	addCmd.Flags().Float64P("strength", "s", 1.0, "Strength in [0,1]")
	addCmd.Flags().Int64("ttl", 0, "Time to live in seconds (no expiry when unset)")
	_ = addCmd.MarkFlagRequired("key")
	_ = addCmd.MarkFlagRequired("value")
	cmd.AddCommand(addCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List active constraints",
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, _ := cmd.Flags().GetString("type")
			c, err := openCore()
			if err != nil {
				return err
			}
			defer c.close()
			return runConstraintList(c.constraints, typ, os.Stdout)
		},
	}
	listCmd.Flags().StringP("type", "t", "", "Filter by type: hard or soft")
	cmd.AddCommand(listCmd)

	obsoleteCmd := &cobra.Command{
		Use:   "obsolete <key>",
		Short: "Remove a constraint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")
			c, err := openCore()
			if err != nil {
				return err
			}
			defer c.close()
			return c.constraints.Obsolete(context.Background(), args[0], reason)
		},
	}
	obsoleteCmd.Flags().StringP("reason", "r", "", "Why the constraint is removed")
	cmd.AddCommand(obsoleteCmd)

	contradictCmd := &cobra.Command{
		Use:   "contradict <key>",
		Short: "Remove a constraint that was proven false",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")
			c, err := openCore()
			if err != nil {
				return err
			}
			defer c.close()
			return c.constraints.Contradict(context.Background(), args[0], reason)
		},
	}
	contradictCmd.Flags().StringP("reason", "r", "", "Evidence contradicting the constraint")
	cmd.AddCommand(contradictCmd)

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Obsolete every active constraint",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCore()
			if err != nil {
				return err
			}
			defer c.close()
			return c.constraints.Clear(context.Background())
		},
	}
	cmd.AddCommand(clearCmd)

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Print the canonical constraint block for prompt injection",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCore()
			if err != nil {
				return err
			}
			defer c.close()
			fmt.Println(c.constraints.CanonicalStateString())
			return nil
		},
	}
	cmd.AddCommand(renderCmd)

	return cmd
}

func runConstraintList(s *constraints.Store, typ string, w io.Writer) error {
	var recs []model.Constraint
	switch typ {
	case "":
		recs = s.GetAll()
	case string(model.ConstraintHard), string(model.ConstraintSoft):
		recs = s.GetByType(model.ConstraintType(typ))
	default:
		return fmt.Errorf("unknown constraint type %q", typ)
	}
	for _, rec := range recs {
		ttl := "none"
		if rec.TTLSeconds != nil {
			ttl = fmt.Sprintf("%ds", *rec.TTLSeconds)
		}
		fmt.Fprintf(w, "%s\t%s\tstrength=%.2f\tttl=%s\t%s\n", rec.Key, rec.Type, rec.Strength, ttl, rec.Value)
	}
	return nil
}
