package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/syllog/internal/logging"
	"github.com/cognicore/syllog/pkg/syllog"
	"github.com/cognicore/syllog/pkg/syllog/config"
	"github.com/cognicore/syllog/pkg/syllog/internalerr"
	"github.com/cognicore/syllog/pkg/syllog/maintenance"
	"github.com/cognicore/syllog/pkg/syllog/resolve"
	"github.com/cognicore/syllog/pkg/syllog/store"
	"github.com/cognicore/syllog/pkg/syllog/store/memstore"
	"github.com/cognicore/syllog/pkg/syllog/store/sqlite"
)

func (a *app) consultCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "consult [programs...]",
		Short: "Load programs and answer the last question they ask",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kb, comp, err := a.open(cmd, args, a.trace)
			if err != nil {
				return err
			}
			defer kb.Close()

			q, ok, err := kb.Pose(ctx, comp.Statements...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintf(out, "%d rules loaded, no question asked\n", len(kb.Rules()))
				return nil
			}
			return printAnswers(ctx, out, kb, q, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Stop after this many answers (0 = all)")
	cmd.Flags().BoolVar(&a.trace, "trace", false, "Log every search step (forces debug level)")
	return cmd
}

func printAnswers(ctx context.Context, out io.Writer, kb *syllog.KnowledgeBase, q resolve.Query, limit int) error {
	n := 0
	for sub, err := range kb.Stream(ctx, q) {
		if errors.Is(err, internalerr.ErrRefuted) {
			fmt.Fprintln(out, "refuted")
			return nil
		}
		if err != nil {
			return err
		}
		if len(sub) == 0 {
			fmt.Fprintln(out, "yes")
		} else {
			fmt.Fprintln(out, sub.String())
		}
		n++
		if limit > 0 && n >= limit {
			return nil
		}
	}
	if n == 0 {
		fmt.Fprintln(out, "no")
	}
	return nil
}

func (a *app) rulesCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "rules [programs...]",
		Short: "Print the normalized rules the programs assert",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kb, comp, err := a.open(cmd, args, false)
			if err != nil {
				return err
			}
			defer kb.Close()

			if _, _, err := kb.Pose(ctx, comp.Statements...); err != nil {
				return err
			}

			var w maintenance.RuleWriter = maintenance.StreamWriter{W: cmd.OutOrStdout()}
			if outPath != "" {
				w = maintenance.FileWriter{Path: outPath}
			}
			exporter := &maintenance.RuleExporter{Writer: w}
			return exporter.Export(ctx, kb.Rules())
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to this file instead of stdout")
	return cmd
}

func (a *app) journalCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recorded queries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			journal, err := a.requireJournal(cmd)
			if err != nil {
				return err
			}
			defer journal.Close()

			entries, err := journal.Entries(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				status := "exhausted"
				switch {
				case e.Refuted:
					status = "refuted"
				case !e.Exhausted:
					status = "partial"
				}
				fmt.Fprintf(out, "%s  %s  %-9s  %s\n",
					e.At.UTC().Format(time.RFC3339), e.ID, status, e.Query)
				for _, ans := range e.Answers {
					fmt.Fprintf(out, "    %s\n", ans)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show (0 = all)")
	return cmd
}

func (a *app) pruneCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete journal entries older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, err := a.requireJournal(cmd)
			if err != nil {
				return err
			}
			defer journal.Close()

			retain := a.cfg.Journal.Retain
			if cmd.Flags().Changed("older-than") {
				retain = olderThan
			}
			pruner := &maintenance.Pruner{Journal: journal, Retain: retain}
			res, err := pruner.Prune(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Info("journal pruned",
				zap.Time("cutoff", res.Cutoff),
				zap.Int("removed", res.Removed),
				zap.Int("kept", res.Kept))
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d, kept %d\n", res.Removed, res.Kept)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Retention window (defaults to journal.retain)")
	return cmd
}

// open loads the config and programs and builds a knowledge base around the
// configured journal.
func (a *app) open(cmd *cobra.Command, programs []string, trace bool) (*syllog.KnowledgeBase, *config.Components, error) {
	loader := &config.Loader{ConfigPath: a.configPath, ProgramPaths: programs}
	comp, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	if len(comp.Sources) == 0 {
		return nil, nil, fmt.Errorf("%w: no programs given", internalerr.ErrInvalidInput)
	}
	a.logger.Debug("programs loaded",
		zap.Strings("sources", comp.Sources),
		zap.Int("statements", len(comp.Statements)))

	journal, err := a.openJournal(cmd)
	if err != nil {
		return nil, nil, err
	}

	resOpts := []resolve.Option{
		resolve.WithMaxDepth(a.cfg.Resolver.MaxDepth),
		resolve.WithSyllogism(a.cfg.Resolver.Syllogism),
	}
	if trace {
		resOpts = append(resOpts, resolve.WithTracer(logging.NewTracer(a.logger)))
	}
	kb := syllog.New(syllog.Options{
		Journal:  journal,
		Logger:   a.logger,
		Resolver: resOpts,
	})
	return kb, comp, nil
}

// openJournal returns nil when journaling is off.
func (a *app) openJournal(cmd *cobra.Command) (store.Journal, error) {
	switch a.cfg.Journal.Driver {
	case config.DriverMemory:
		return memstore.NewJournal(), nil
	default:
		if strings.TrimSpace(a.cfg.Journal.Path) == "" {
			return nil, nil
		}
		journal, err := sqlite.OpenJournal(cmd.Context(), a.cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		return journal, nil
	}
}

func (a *app) requireJournal(cmd *cobra.Command) (store.Journal, error) {
	if a.cfg.Journal.Driver != config.DriverSQLite || a.cfg.Journal.Path == "" {
		return nil, fmt.Errorf("%w: set journal.path or --journal to a sqlite file", internalerr.ErrInvalidConfig)
	}
	return a.openJournal(cmd)
}
