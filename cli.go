package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/syrilster/leave-lop-console/internal"
	"github.com/syrilster/leave-lop-console/internal/config"
	"github.com/syrilster/leave-lop-console/internal/model"
	"github.com/syrilster/leave-lop-console/internal/roster"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "leave-console",
		Short:         "HR console for reviewing leave balances and applying loss of pay",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newExportCmd())
	return cmd
}

// withConsole loads the application config, builds the console and restores
// any persisted session before calling fn.
func withConsole(ctx context.Context, fn func(*config.ApplicationConfig, *internal.Service) error) error {
	cfg, err := config.NewApplicationConfig()
	if err != nil {
		return errors.Wrap(err, "failed to start application")
	}
	defer func() {
		if err := cfg.Close(); err != nil {
			log.WithError(err).Warn("failed to release connections")
		}
	}()

	level, err := log.ParseLevel(cfg.LogLevel())
	if err != nil {
		log.WithError(err).Warnf("unknown log level %q, keeping %s", cfg.LogLevel(), log.GetLevel())
	} else {
		log.SetLevel(level)
	}

	console := internal.NewConsole(cfg)
	console.Initialize(ctx)
	return fn(cfg, console)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the console HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withConsole(ctx, func(cfg *config.ApplicationConfig, console *internal.Service) error {
				server := internal.SetupServer(cfg, console)
				err := server.Start(ctx, "", cfg.ServerPort())
				console.Wait()
				return err
			})
		},
	}
}

type loginOptions struct {
	Email    string
	Password string
}

func newLoginCmd() *cobra.Command {
	var opts loginOptions

	cmd := &cobra.Command{
		Use:   "login --email <email> --password <password>",
		Short: "Sign in to the ledger and persist the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(opts.Email) == "" {
				return errors.New("--email is required")
			}
			if opts.Password == "" {
				opts.Password = os.Getenv("LEDGER_PASSWORD")
			}
			if opts.Password == "" {
				return errors.New("--password or LEDGER_PASSWORD is required")
			}

			return withConsole(cmd.Context(), func(_ *config.ApplicationConfig, console *internal.Service) error {
				if err := console.Login(cmd.Context(), opts.Email, opts.Password); err != nil {
					return err
				}
				console.Wait()
				if user, ok := console.Status().User.(model.User); ok {
					cmd.Printf("Logged in as %s (%s)\n", user.Name, user.Role)
					return nil
				}
				cmd.Println("Logged in")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "ledger account email")
	cmd.Flags().StringVar(&opts.Password, "password", "", "ledger account password (defaults to LEDGER_PASSWORD)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConsole(cmd.Context(), func(_ *config.ApplicationConfig, console *internal.Service) error {
				console.Logout(cmd.Context())
				cmd.Println("Logged out")
				return nil
			})
		},
	}
}

type exportOptions struct {
	Year     int
	Month    int
	Search   string
	Page     int
	PageSize int
	Out      string
	Email    bool
}

func newExportCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the visible leave summary page to an xlsx file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withConsole(ctx, func(_ *config.ApplicationConfig, console *internal.Service) error {
				if !console.Status().Authenticated {
					return errors.New("not logged in, run the login command first")
				}

				if update, changed := opts.update(cmd); changed {
					if _, err := console.SetParams(ctx, update); err != nil {
						return err
					}
				}
				console.Wait()
				view, err := console.Refresh(ctx)
				if err != nil {
					return err
				}
				if view.Error != "" {
					return errors.New(view.Error)
				}

				if opts.Email {
					return console.EmailExport(ctx)
				}

				file, err := console.Export(ctx)
				if err != nil {
					return err
				}
				out := opts.Out
				if out == "" {
					out = file.Name
				}
				if err := os.WriteFile(out, file.Data, 0o644); err != nil {
					return errors.Wrapf(err, "writing %s", out)
				}
				abs, _ := filepath.Abs(out)
				cmd.Printf("Exported %d rows to %s\n", len(view.Rows), abs)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&opts.Year, "year", 0, "leave year")
	cmd.Flags().IntVar(&opts.Month, "month", 0, "month (1-12)")
	cmd.Flags().StringVar(&opts.Search, "search", "", "filter employees by name or id")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "rows per page")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output path (defaults to the generated file name)")
	cmd.Flags().BoolVar(&opts.Email, "email", false, "email the workbook instead of writing it")
	return cmd
}

// update returns the params explicitly set on the command line.
func (o exportOptions) update(cmd *cobra.Command) (roster.ParamsUpdate, bool) {
	var u roster.ParamsUpdate
	flags := cmd.Flags()
	if flags.Changed("year") {
		u.Year = &o.Year
	}
	if flags.Changed("month") {
		u.Month = &o.Month
	}
	if flags.Changed("search") {
		u.SearchText = &o.Search
	}
	if flags.Changed("page") {
		u.Page = &o.Page
	}
	if flags.Changed("page-size") {
		u.PageSize = &o.PageSize
	}
	changed := u.Year != nil || u.Month != nil || u.SearchText != nil || u.Page != nil || u.PageSize != nil
	return u, changed
}
