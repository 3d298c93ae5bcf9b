package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/subtitle-batch-translator/internal/jobs"
)

func newJobsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect or discard stored translation jobs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored jobs and their progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(root, func(ctx context.Context, store jobs.Store) error {
				list, err := store.List(ctx)
				if err != nil {
					return err
				}
				printJobs(cmd.OutOrStdout(), list)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear [name]...",
		Short: "Discard the named jobs, or every job when no name is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(root, func(ctx context.Context, store jobs.Store) error {
				names := args
				if len(names) == 0 {
					list, err := store.List(ctx)
					if err != nil {
						return err
					}
					for _, job := range list {
						names = append(names, job.Name)
					}
				}
				for _, name := range names {
					if err := store.Delete(ctx, name); err != nil {
						return fmt.Errorf("failed to delete job %s: %w", name, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Discarded %d jobs\n", len(names))
				return nil
			})
		},
	})
	return cmd
}

func withStore(root *rootOptions, fn func(ctx context.Context, store jobs.Store) error) error {
	cfg, closeLog, err := loadConfig(root)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(context.Background(), store)
}

func printJobs(w io.Writer, list []*jobs.Job) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATUS\tUNITS\tTOKENS\tREVISED\tUPDATED\tERROR")
	for _, job := range list {
		done := 0
		for _, ok := range job.CompletedIDs {
			if ok {
				done++
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%d\t%t\t%s\t%s\n", job.Name, job.Status, done, job.TotalUnits,
			job.TokensUsed, job.Revised, job.UpdatedAt.Format(time.DateTime), job.Error)
	}
	_ = tw.Flush()
}
