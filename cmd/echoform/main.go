// Command echoform is the survey console: an HTTP server for the web UI
// and a CLI for operators working from a terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/soaringjerry/Echoform/internal/backend"
	"github.com/soaringjerry/Echoform/internal/config"
	"github.com/soaringjerry/Echoform/internal/db"
	"github.com/soaringjerry/Echoform/internal/services"
	"github.com/soaringjerry/Echoform/internal/session"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version   = "dev"
	commit    = ""
	buildTime = ""
)

var errNotLoggedIn = errors.New("not logged in, run `echoform login` first")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	configPath string
	verbose    bool
	asJSON     bool

	cfg config.Config
	log *zap.Logger
	out io.Writer
}

func newRootCmd() *cobra.Command { return (&app{}).rootCmd() }

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "echoform",
		Short:        "Customer feedback console",
		Long:         "echoform serves the feedback console and lets operators review responses, rewards and exports from the terminal.",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file (default $ECHOFORM_CONFIG)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print JSON instead of tables")

	root.AddCommand(
		a.serveCmd(),
		a.migrateCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.responsesCmd(),
		a.customerCmd(),
		a.rewardsCmd(),
		a.analyticsCmd(),
		a.exportCmd(),
		a.approveCmd(),
		a.rejectCmd(),
		a.deleteCmd(),
		a.pointsCmd(),
		a.surveyCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.out = cmd.OutOrStdout()
	if a.log == nil {
		log, err := newLogger(cfg.Logging, a.verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.log = log
	}
	return nil
}

func newLogger(l config.Logging, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level := zapcore.InfoLevel
	if l.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(l.Level))); err != nil {
			return nil, fmt.Errorf("log level %q: %w", l.Level, err)
		}
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func (a *app) client() (*backend.Client, error) {
	return backend.New(backend.Options{
		BaseURL:   a.cfg.Backend.BaseURL,
		Timeout:   a.cfg.Backend.Timeout,
		RetryMax:  a.cfg.Backend.RetryMax,
		Endpoints: a.cfg.Backend.Endpoints,
		Logger:    a.log,
	})
}

func (a *app) openSession(ctx context.Context) (*session.Store, func(), error) {
	sqlDB, err := db.Open(ctx, a.cfg.SessionDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}
	kv, err := db.NewKVStore(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}
	return session.NewStore(kv, a.log), func() { _ = sqlDB.Close() }, nil
}

// call carries what an authenticated command needs.
type call struct {
	session   *session.Session
	client    *backend.Client
	responses *services.ResponseService
}

func (c *call) businessID(override string) (string, error) {
	if id := strings.TrimSpace(override); id != "" {
		return id, nil
	}
	if id := c.session.BusinessID(); id != "" {
		return id, nil
	}
	return "", errors.New("no business on this account, pass --business")
}

func (c *call) rewards(a *app) *services.RewardsService {
	return services.NewRewardsService(c.client, c.responses, a.cfg.Backend.WriteTimeout, a.log)
}

// withSession runs fn with a client bound to the stored token. A backend
// rejection of the token ends the session.
func (a *app) withSession(ctx context.Context, fn func(context.Context, *call) error) error {
	store, closeStore, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	sess := store.Load(ctx)
	if sess == nil {
		return errNotLoggedIn
	}
	cl, err := a.client()
	if err != nil {
		return err
	}
	cl = cl.WithToken(sess.Token)
	c := &call{
		session: sess,
		client:  cl,
		responses: services.NewResponseService(cl, cl, services.ResponseOptions{
			Labels:               services.LabelsFor(a.cfg.Locale),
			FallbackQuestions:    a.cfg.FallbackQuestions,
			MaxConcurrentFetches: a.cfg.Backend.MaxConcurrentFetches,
		}, a.log),
	}
	err = fn(ctx, c)
	if services.IsUnauthorized(err) {
		if cerr := store.Clear(ctx); cerr != nil {
			a.log.Warn("clear session", zap.Error(cerr))
		}
		return fmt.Errorf("%w (session ended, log in again)", err)
	}
	return err
}
