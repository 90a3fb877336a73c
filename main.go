package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/dipan-dev/portfolio/internal/config"
	"github.com/dipan-dev/portfolio/internal/contact"
	"github.com/dipan-dev/portfolio/internal/content"
	"github.com/dipan-dev/portfolio/internal/projects"
	"github.com/dipan-dev/portfolio/internal/store"
	"github.com/dipan-dev/portfolio/internal/web"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

var (
	cfg = config.New()

	rootCmd = &cobra.Command{
		Use:               "portfolio",
		Short:             "Personal portfolio site",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE:  runServe,
	}
	pruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Delete visitor data older than the retention period",
		RunE:  runPrune,
	}

	configFile string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Optional config file (yaml, toml or json), reloaded on change")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path. Falls back to DB_PATH")
	serveCmd.Flags().String("addr", "", "Address to listen on (host:port). Falls back to ADDR, or HOST and PORT")
	serveCmd.Flags().String("content", "", "YAML content file. Falls back to CONTENT_PATH, then the built-in content")

	for key, flag := range map[string]string{"DB_PATH": "db"} {
		if err := cfg.BindFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			log.Fatal(err)
		}
	}
	for key, flag := range map[string]string{"ADDR": "addr", "CONTENT_PATH": "content"} {
		if err := cfg.BindFlag(key, serveCmd.Flags().Lookup(flag)); err != nil {
			log.Fatal(err)
		}
	}
	rootCmd.AddCommand(serveCmd, pruneCmd)
}

func setup(*cobra.Command, []string) error {
	if configFile != "" {
		if err := cfg.LoadFile(configFile); err != nil {
			return err
		}
	}
	config.SetupLog(cfg)
	if cfg.GetLogLevel() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := config.SetupTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownTelemetry()

	site, err := content.NewStore(cfg.GetContentPath())
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, cfg.GetDBPath())
	if err != nil {
		return err
	}
	defer st.Close()

	gh, err := projects.NewGitHub(projects.WithToken(cfg.GetGitHubToken()))
	if err != nil {
		return err
	}

	svc, closeNotifiers, err := newContactService(st)
	if err != nil {
		return err
	}
	defer closeNotifiers()

	srv, err := web.NewServer(cfg, web.Deps{Content: site, Projects: gh, Store: st, Contact: svc})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	httpServer := &http.Server{
		Addr:              cfg.GetAddr(),
		Handler:           otelhttp.NewHandler(srv.Handler(), cfg.GetServiceName()),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		slog.Info("Starting server", "addr", httpServer.Addr, "github_user", cfg.GetGitHubUser())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error { return site.Watch(ctx) })
	g.Go(func() error { return runRetention(ctx, st) })
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	slog.Info("Server stopped")
	return err
}

// newContactService wires the configured notifiers. The returned func releases them.
func newContactService(st *store.Store) (*contact.Service, func(), error) {
	opts := []contact.Option{contact.WithLimit(cfg.GetContactInterval(), cfg.GetContactBurst())}
	closers := []func(){}

	if smtpCfg := cfg.GetSMTP(); smtpCfg.Enabled() {
		opts = append(opts, contact.WithNotifier(contact.NewMailer(smtpCfg)))
	} else {
		slog.Warn("SMTP not configured; contact messages are only stored")
	}
	if url := cfg.GetNATSURL(); url != "" {
		pub, err := contact.NewPublisher(url, cfg.GetNATSSubject())
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Publishing contact messages to NATS", "subject", cfg.GetNATSSubject())
		opts = append(opts, contact.WithNotifier(pub))
		closers = append(closers, pub.Close)
	}

	return contact.NewService(st, opts...), func() {
		for _, c := range closers {
			c()
		}
	}, nil
}

// runRetention prunes expired visitor data now and then on the cleanup schedule until ctx ends.
func runRetention(ctx context.Context, st *store.Store) error {
	c := cron.New()
	schedule := cfg.GetCleanupSchedule()
	if _, err := c.AddFunc(schedule, func() { pruneVisits(ctx, st) }); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	pruneVisits(ctx, st)
	c.Start()
	slog.Info("Visitor retention job scheduled", "schedule", schedule, "retention", cfg.GetVisitorRetention())

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func pruneVisits(ctx context.Context, st *store.Store) (int64, error) {
	cutoff := time.Now().Add(-cfg.GetVisitorRetention())
	n, err := st.PruneVisits(ctx, cutoff)
	if err != nil {
		slog.Error("Failed to prune visitor data", "error", err)
		return 0, err
	}
	if n > 0 {
		slog.Info("Pruned visitor data", "removed", n, "cutoff", cutoff)
	}
	return n, nil
}

func runPrune(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(cmd.Context(), cfg.GetDBPath())
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := pruneVisits(cmd.Context(), st)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d visitor records\n", n)
	return nil
}
