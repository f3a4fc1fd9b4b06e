package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	integrationapp "github.com/m13/backoffice/internal/application/integration"
	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/domain/report"
	"github.com/m13/backoffice/internal/infrastructure/auth"
)

const dateLayout = "2006-01-02"

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "m13ctl",
		Short:        "Run M13 marketplace jobs from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.AddCommand(
		ordersCmd(a),
		stockCmd(a),
		pricesCmd(a),
		feedCmd(a),
		shipmentsCmd(a),
		reportsCmd(a),
		statsCmd(a),
		jobsCmd(a),
		catalogCmd(a),
		mirapodoCmd(a),
		galaxusCmd(a),
		tokenCmd(a),
	)
	return root
}

func group(use, short string, children ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{Use: use, Short: short}
	cmd.AddCommand(children...)
	return cmd
}

func ordersCmd(a *app) *cobra.Command {
	var since string
	sync := &cobra.Command{
		Use:   "sync <marketplace|all>",
		Short: "Import new orders from a marketplace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := integration.OrderQuery{}
			if since != "" {
				t, err := time.Parse(dateLayout, since)
				if err != nil {
					return fmt.Errorf("invalid --since %q: %w", since, err)
				}
				query.Since = t
			}
			if strings.EqualFold(args[0], "all") {
				return a.track(cmd, "all", func(ctx context.Context, svc *services) error {
					results, err := svc.orders.ImportAll(ctx, query)
					if len(results) > 0 {
						_ = writeJSON(cmd.OutOrStdout(), results)
					}
					return err
				})
			}
			m, err := integration.ParseMarketplace(args[0])
			if err != nil {
				return err
			}
			return a.track(cmd, m.String(), func(ctx context.Context, svc *services) error {
				res, err := svc.orders.ImportOrders(ctx, m, query)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	sync.Flags().StringVar(&since, "since", "", "only orders created after this date (YYYY-MM-DD)")
	return group("orders", "Order import", sync)
}

func stockCmd(a *app) *cobra.Command {
	sync := &cobra.Command{
		Use:   "sync [marketplace...]",
		Short: "Push shop stock to the marketplaces, all enabled ones when none given",
		RunE: func(cmd *cobra.Command, args []string) error {
			markets, err := parseMarketplaces(args)
			if err != nil {
				return err
			}
			return a.track(cmd, strings.Join(args, ","), func(ctx context.Context, svc *services) error {
				results, err := svc.sync.SyncStock(ctx, markets...)
				if len(results) > 0 {
					_ = writeJSON(cmd.OutOrStdout(), results)
				}
				return err
			})
		},
	}
	return group("stock", "Stock synchronization", sync)
}

func pricesCmd(a *app) *cobra.Command {
	sync := &cobra.Command{
		Use:       "sync [aboutyou]",
		Short:     "Push shop prices to AboutYou",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"aboutyou"},
		RunE: func(cmd *cobra.Command, args []string) error {
			m := integration.MarketplaceAboutYou
			if len(args) == 1 {
				var err error
				if m, err = integration.ParseMarketplace(args[0]); err != nil {
					return err
				}
				if m != integration.MarketplaceAboutYou {
					return fmt.Errorf("price sync is only supported for aboutyou, got %s", m)
				}
			}
			return a.track(cmd, m.String(), func(ctx context.Context, svc *services) error {
				res, err := svc.sync.SyncPrices(ctx, m)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	return group("prices", "Price synchronization", sync)
}

func feedCmd(a *app) *cobra.Command {
	var dryRun bool
	upload := &cobra.Command{
		Use:       "upload <zalando|galeria>",
		Short:     "Build a marketplace feed from the shop feed and upload it",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"zalando", "galeria"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.ToLower(args[0])
			if target != "zalando" && target != "galeria" {
				return fmt.Errorf("unknown feed target %q", args[0])
			}
			return a.track(cmd, target, func(ctx context.Context, svc *services) error {
				var (
					upload *integration.FeedUpload
					err    error
				)
				if target == "zalando" {
					upload, err = svc.feeds.UploadZalandoFeed(ctx, integrationapp.FeedRunOptions{DryRun: dryRun})
				} else {
					upload, err = svc.feeds.BuildGaleriaFeed(ctx)
				}
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), upload)
			})
		},
	}
	upload.Flags().BoolVar(&dryRun, "dry-run", false, "transform and validate without uploading (zalando)")
	return group("feed", "Marketplace feeds", upload)
}

func shipmentsCmd(a *app) *cobra.Command {
	upload := &cobra.Command{
		Use:   "upload <file>",
		Short: "Route a DHL tracking export to the marketplaces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return a.track(cmd, args[0], func(ctx context.Context, svc *services) error {
				res, err := svc.shipments.UploadTrackingFile(ctx, f)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	return group("shipments", "Shipment confirmations", upload)
}

func reportsCmd(a *app) *cobra.Command {
	imp := &cobra.Command{
		Use:   "import",
		Short: "Import pending Zalando transaction files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.track(cmd, "zalando", func(ctx context.Context, svc *services) error {
				res, err := svc.reports.ImportPending(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	now := time.Now()
	var (
		year  int
		month int
		out   string
	)
	export := &cobra.Command{
		Use:       "export <otto|zalando>",
		Short:     "Write the DATEV booking batch of one month",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"otto", "zalando"},
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := integration.ParseMarketplace(args[0])
			if err != nil {
				return err
			}
			period, err := report.NewPeriod(year, month)
			if err != nil {
				return err
			}
			return a.track(cmd, fmt.Sprintf("%s %04d-%02d", m, year, month), func(ctx context.Context, svc *services) error {
				exp, err := svc.datev.Export(ctx, m, period)
				if err != nil {
					return err
				}
				path := out
				if path == "" {
					path = exp.FileName
				}
				if path == "-" {
					_, err = cmd.OutOrStdout().Write(exp.Data)
					return err
				}
				if err := os.WriteFile(path, exp.Data, 0o644); err != nil {
					return err
				}
				a.log.Info("DATEV export written", zap.String("file", path), zap.Int("bookings", exp.Bookings))
				return nil
			})
		},
	}
	export.Flags().IntVar(&year, "year", now.Year(), "booking year")
	export.Flags().IntVar(&month, "month", int(now.Month()), "booking month")
	export.Flags().StringVarP(&out, "out", "o", "", "output file, - for stdout (default: DATEV file name)")

	return group("reports", "Zalando reports and DATEV exports", imp, export)
}

func statsCmd(a *app) *cobra.Command {
	var (
		start  string
		format string
		out    string
	)
	articles := &cobra.Command{
		Use:   "articles",
		Short: "Per-category article statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			since, err := time.Parse(dateLayout, start)
			if err != nil {
				return fmt.Errorf("invalid --start %q: %w", start, err)
			}
			if format != "json" && format != "xlsx" {
				return fmt.Errorf("unknown format %q", format)
			}
			if format == "xlsx" && out == "" {
				return fmt.Errorf("--out is required for xlsx")
			}
			return a.track(cmd, start, func(ctx context.Context, svc *services) error {
				rep, err := svc.stats.ArticleStats(ctx, since)
				if err != nil {
					return err
				}
				if format == "json" {
					return writeJSON(cmd.OutOrStdout(), rep)
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := rep.WriteXLSX(f); err != nil {
					_ = f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
	articles.Flags().StringVar(&start, "start", time.Now().AddDate(0, -1, 0).Format(dateLayout), "first order date (YYYY-MM-DD)")
	articles.Flags().StringVar(&format, "format", "json", "json or xlsx")
	articles.Flags().StringVarP(&out, "out", "o", "", "xlsx output file")
	return group("stats", "Sales statistics", articles)
}

func jobsCmd(a *app) *cobra.Command {
	var days int
	truncate := &cobra.Command{
		Use:   "truncate",
		Short: "Delete old job records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}
			ctx := cmd.Context()
			svc, err := a.services(ctx)
			if err != nil {
				return err
			}
			n, err := svc.jobs.Truncate(ctx, time.Duration(days)*24*time.Hour)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d job records\n", n)
			return nil
		},
	}
	truncate.Flags().IntVar(&days, "days", 0, "keep records of the last n days (0 = configured retention)")
	return group("jobs", "Job records", truncate)
}

func catalogCmd(a *app) *cobra.Command {
	export := func(use, short string, write func(ctx context.Context, svc *services, w io.Writer) (any, error)) *cobra.Command {
		var out string
		cmd := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.track(cmd, use, func(ctx context.Context, svc *services) error {
					w := cmd.OutOrStdout()
					if out != "" {
						f, err := os.Create(out)
						if err != nil {
							return err
						}
						defer f.Close()
						w = f
					}
					summary, err := write(ctx, svc, w)
					if err != nil {
						return err
					}
					a.log.Info("Catalog export written", zap.String("kind", use), zap.Any("summary", summary))
					return nil
				})
			},
		}
		cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
		return cmd
	}

	return group("catalog", "Catalog exports",
		export("skus", "List sku;ean;category", func(ctx context.Context, svc *services, w io.Writer) (any, error) {
			return svc.exports.WriteSKUs(ctx, w)
		}),
		export("prices", "Dump price fields and categories as JSON", func(ctx context.Context, svc *services, w io.Writer) (any, error) {
			dump, err := svc.exports.WritePrices(ctx, w)
			if err != nil {
				return nil, err
			}
			return map[string]int{"prices": len(dump.Prices), "categories": len(dump.Categories)}, nil
		}),
	)
}

func mirapodoCmd(a *app) *cobra.Command {
	order := &cobra.Command{
		Use:   "order <id>",
		Short: "Import a single Mirapodo order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track(cmd, args[0], func(ctx context.Context, svc *services) error {
				o, err := svc.orders.ImportSingleOrder(ctx, integration.MarketplaceMirapodo, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), o)
			})
		},
	}
	return group("mirapodo", "Mirapodo tools", order)
}

func galaxusCmd(a *app) *cobra.Command {
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List the Galaxus SFTP directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := a.services(ctx)
			if err != nil {
				return err
			}
			if svc.galaxus == nil {
				return errGalaxusDisabled
			}
			dirs, err := svc.galaxus.ListDirectories(ctx)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(dirs))
			for dir := range dirs {
				names = append(names, dir)
			}
			sort.Strings(names)
			w := cmd.OutOrStdout()
			for _, dir := range names {
				fmt.Fprintf(w, "%s/\n", dir)
				for _, f := range dirs[dir] {
					fmt.Fprintf(w, "  %s\n", f)
				}
			}
			return nil
		},
	}
	return group("galaxus", "Galaxus tools", ls)
}

func tokenCmd(a *app) *cobra.Command {
	var (
		scope string
		ttl   time.Duration
	)
	issue := &cobra.Command{
		Use:   "issue <subject>",
		Short: "Sign an API bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := auth.Scope(scope)
			if s != auth.ScopeAdmin && s != auth.ScopeRead {
				return fmt.Errorf("unknown scope %q", scope)
			}
			issuer := a.tokens
			if issuer == nil {
				issuer = auth.NewJWTService(a.cfg.JWT)
			}
			token, claims, err := issuer.Issue(args[0], s, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			a.log.Info("Token issued",
				zap.String("subject", claims.Subject),
				zap.String("scope", string(claims.Scope)),
				zap.Time("expires", claims.ExpiresAt.Time))
			return nil
		},
	}
	issue.Flags().StringVar(&scope, "scope", string(auth.ScopeAdmin), "admin or read")
	issue.Flags().DurationVar(&ttl, "ttl", 0, "lifetime (default: configured expiration)")
	return group("token", "API tokens", issue)
}

func parseMarketplaces(args []string) ([]integration.Marketplace, error) {
	out := make([]integration.Marketplace, 0, len(args))
	for _, arg := range args {
		m, err := integration.ParseMarketplace(arg)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", arg, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
