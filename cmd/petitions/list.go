package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/uk-petitions/pkg/loader"
	"github.com/Sternrassler/uk-petitions/pkg/pager"
	"github.com/Sternrassler/uk-petitions/pkg/petition"
	"github.com/Sternrassler/uk-petitions/pkg/snapshot"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var out outputOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every petition",
		Long:  "Walk every page of the petition list and print each petition.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd, map[string]string{
				"detail":   "pager.load_detail",
				"interval": "pager.load_interval",
			}); err != nil {
				return err
			}
			defer a.close()
			return a.traverse(cmd, out, func(p *pager.Pager) { p.Populate(nil, nil) })
		},
	}

	cmd.Flags().Bool("detail", false, "load each petition's detail record")
	cmd.Flags().Duration("interval", 0, "delay before each request")
	out.register(cmd)
	return cmd
}

func newHotCmd(a *app) *cobra.Command {
	var out outputOptions

	cmd := &cobra.Command{
		Use:   "hot",
		Short: "List the petitions on the first page",
		Long:  "Load the first page of the default petition listing and print it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd, map[string]string{
				"detail": "pager.load_detail",
			}); err != nil {
				return err
			}
			defer a.close()
			return a.traverse(cmd, out, func(p *pager.Pager) { p.PopulateOneLevel() })
		},
	}

	cmd.Flags().Bool("detail", false, "load each petition's detail record")
	out.register(cmd)
	return cmd
}

// traverse runs one traversal, printing petitions as they are stored, and
// returns once it completes. A page that cannot be loaded ends the command
// with an error; failures of single petitions are logged.
func (a *app) traverse(cmd *cobra.Command, out outputOptions, start func(*pager.Pager)) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	a.serveMetrics(ctx)

	p, err := pager.New(a.loader, a.loader, a.cfg.PagerConfig(), a.logger)
	if err != nil {
		return err
	}
	defer p.Stop()

	pr := newPrinter(cmd.OutOrStdout(), out)
	done := make(chan int, 1)
	failed := make(chan error, 1)

	p.Subscribe(pager.ObserverFuncs{
		Petition: func(cur, old *petition.Petition) {
			if err := pr.petition(cur, old); err != nil {
				a.logger.Error().Err(err).Msg("Failed to write petition")
			}
		},
		Error: func(err error) {
			if errors.Is(err, pager.ErrPageFetch) || errors.Is(err, loader.ErrInvalidPage) {
				select {
				case failed <- err:
				default:
				}
				return
			}
			a.logger.Warn().Err(err).Msg("Skipping petition")
		},
		Loaded: func(view snapshot.View) {
			done <- view.Count()
		},
	})

	start(p)

	select {
	case n := <-done:
		a.logger.Info().Int("petitions", n).Msg("Petitions loaded")
		return pr.summary(n)
	case err := <-failed:
		return err
	case <-ctx.Done():
		return fmt.Errorf("interrupted: %w", ctx.Err())
	}
}
