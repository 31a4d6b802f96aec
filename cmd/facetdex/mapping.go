package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var mappingCmd = &cobra.Command{
	Use:   "mapping [type...]",
	Short: "Print the derived index mapping of document types",
	Long: `Print the FT.CREATE command derived from each document definition.
Without arguments every configured type is printed.`,
	RunE: runMapping,
}

var ensureCmd = &cobra.Command{
	Use:   "ensure [type...]",
	Short: "Create missing indexes and store configured reference tables",
	RunE:  runEnsure,
}

func init() {
	rootCmd.AddCommand(mappingCmd)
	rootCmd.AddCommand(ensureCmd)
}

func runMapping(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	types := args
	if len(types) == 0 {
		types = a.cfg.Types()
	}
	for _, t := range types {
		idx, err := a.indexes.Mapping(ctx, t)
		if err != nil {
			return fmt.Errorf("mapping %s: %w", t, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), idx.String())
	}
	return nil
}

func runEnsure(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) == 0 {
		return a.provision(ctx)
	}
	for _, t := range args {
		created, err := a.indexes.Ensure(ctx, t)
		if err != nil {
			return fmt.Errorf("ensure %s: %w", t, err)
		}
		state := "exists"
		if created {
			state = "created"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", t, state)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
