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

	"github.com/goliatone/go-contractgen"
	"github.com/goliatone/go-contractgen/pkg/prompt"
	"github.com/goliatone/go-contractgen/pkg/service"
	"github.com/goliatone/go-contractgen/pkg/templates"
	"github.com/goliatone/go-contractgen/pkg/templates/sqlite"
)

const (
	envTemplates = "CONTRACTGEN_TEMPLATES"
	envDB        = "CONTRACTGEN_DB"
)

// errInvalidSubmission is returned after validation errors have been printed.
var errInvalidSubmission = errors.New("submission is invalid")

type cli struct {
	templatesDir string
	dbPath       string
	strict       bool
	verbose      bool

	logger *zap.Logger
	driver prompt.Driver
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&cli{logger: zap.NewNop()})
}

func buildRootCmd(app *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "contractgen",
		Short: "Validate form data and generate contract documents from templates",
		Long: `contractgen renders contract documents from declarative templates.

Templates are read from a directory (--templates), a SQLite database (--db) or,
when neither is given, the built-in loan, rent, service and NDA contracts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.templatesDir == "" {
				app.templatesDir = os.Getenv(envTemplates)
			}
			if app.dbPath == "" {
				app.dbPath = os.Getenv(envDB)
			}

			config := zap.NewProductionConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if app.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			app.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = app.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&app.templatesDir, "templates", "t", "", "Template directory (or set "+envTemplates+")")
	flags.StringVar(&app.dbPath, "db", "", "SQLite template database (or set "+envDB+")")
	flags.BoolVar(&app.strict, "strict", false, "Fail when a template definition is malformed instead of skipping it")
	flags.BoolVarP(&app.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		newTypesCmd(app),
		newTemplateCmd(app),
		newValidateCmd(app),
		newGenerateCmd(app),
		newFillCmd(app),
		newImportCmd(app),
		newLintCmd(app),
		newHealthCmd(app),
	)
	return root
}

func (app *cli) loadOptions() []templates.LoadOption {
	opts := []templates.LoadOption{
		templates.WithIssueHandler(func(source string, err error) {
			app.logger.Warn("template skipped", zap.String("source", source), zap.Error(err))
		}),
	}
	if app.strict {
		opts = append(opts, templates.WithStrict())
	}
	return opts
}

// loadStore resolves the template source: database first, then directory,
// then the built-in set.
func (app *cli) loadStore(ctx context.Context) (*templates.Store, error) {
	switch {
	case app.dbPath != "":
		db, err := sqlite.Open(ctx, app.dbPath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		app.logger.Debug("loading templates", zap.String("db", app.dbPath))
		return sqlite.Load(ctx, db, app.loadOptions()...)
	case app.templatesDir != "":
		app.logger.Debug("loading templates", zap.String("dir", app.templatesDir))
		return templates.LoadFS(os.DirFS(app.templatesDir), app.loadOptions()...)
	default:
		return contractgen.DefaultTemplates()
	}
}

func (app *cli) service(ctx context.Context) (*service.Service, error) {
	store, err := app.loadStore(ctx)
	if err != nil {
		return nil, err
	}
	return service.New(store, service.WithLogger(app.logger))
}

// promptDriver returns the injected driver or a survey driver that prints
// messages to the command's stderr.
func (app *cli) promptDriver(cmd *cobra.Command) prompt.Driver {
	if app.driver != nil {
		return app.driver
	}
	return prompt.NewSurveyDriver(prompt.WithInfoWriter(cmd.ErrOrStderr()))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// openInput opens path for reading; "-" means the command's stdin.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if strings.TrimSpace(path) == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
