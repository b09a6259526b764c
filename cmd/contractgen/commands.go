package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-contractgen/pkg/export"
	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/prompt"
	"github.com/goliatone/go-contractgen/pkg/service"
	"github.com/goliatone/go-contractgen/pkg/templates"
	"github.com/goliatone/go-contractgen/pkg/templates/sqlite"
	"github.com/goliatone/go-contractgen/pkg/validation"
)

func writeJSON(w io.Writer, value any) error {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(payload))
	return err
}

func newTypesCmd(app *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the available contract types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.service(commandContext(cmd))
			if err != nil {
				return err
			}
			types := svc.Types()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), types)
			}
			for _, summary := range types {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", summary.ID, summary.Title)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the listing as JSON")
	return cmd
}

func newTemplateCmd(app *cli) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "template <contract-type>",
		Short: "Print the definition of a contract type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.service(commandContext(cmd))
			if err != nil {
				return err
			}
			tpl, err := svc.Template(args[0])
			if err != nil {
				return err
			}
			f, err := templates.ParseFormat(format)
			if err != nil {
				return err
			}
			payload, err := templates.Encode(tpl, f)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(payload)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format (yaml or json)")
	return cmd
}

func newValidateCmd(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <contract-type> <form-data-file|->",
		Short: "Validate form data against a contract type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			svc, err := app.service(ctx)
			if err != nil {
				return err
			}
			data, err := readFormData(cmd, args[1])
			if err != nil {
				return err
			}
			result, err := svc.Validate(ctx, args[0], data)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.Valid {
				return errInvalidSubmission
			}
			return nil
		},
	}
	return cmd
}

type outputOptions struct {
	format      string
	output      string
	envelopeDir string
	envelope    string
}

func (o *outputOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", "markdown", "Output format (markdown, json or text); inferred from --output when unset")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Output file, or directory when several documents are generated (stdout if empty)")
	cmd.Flags().StringVar(&o.envelopeDir, "envelope-dir", "", "Directory of .tpl envelopes for the text format")
	cmd.Flags().StringVar(&o.envelope, "envelope", export.DefaultEnvelope, "Envelope used by the text format")
}

// exporter resolves --format. A single output file with a known extension
// picks the format when --format was not given.
func (o *outputOptions) exporter(cmd *cobra.Command, multi bool) (export.Exporter, error) {
	reg, err := export.DefaultRegistry(
		export.WithEnvelopeDir(o.envelopeDir),
		export.WithEnvelope(o.envelope),
	)
	if err != nil {
		return nil, err
	}
	if !cmd.Flags().Changed("format") && o.output != "" && !multi {
		if exporter, ok := reg.ForPath(o.output); ok {
			return exporter, nil
		}
	}
	return reg.Get(o.format)
}

// write stores doc at the output path. With several documents the output is a
// directory and each file is named after its input.
func (o *outputOptions) write(cmd *cobra.Command, exporter export.Exporter, doc model.RenderedDocument, source string, multi bool) error {
	payload, err := exporter.Export(doc)
	if err != nil {
		return err
	}
	if o.output == "" {
		if multi {
			fmt.Fprintf(cmd.OutOrStdout(), "<!-- %s -->\n", source)
		}
		_, err = cmd.OutOrStdout().Write(payload)
		return err
	}

	path := o.output
	if multi {
		if err := os.MkdirAll(o.output, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", o.output, err)
		}
		base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		path = filepath.Join(o.output, base+exporter.Extension())
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Contract written to %s\n", path)
	return nil
}

func printFieldErrors(w io.Writer, source string, err error) {
	errs, ok := validation.AsErrors(err)
	if !ok {
		fmt.Fprintf(w, "%s: %v\n", source, err)
		return
	}
	for _, fe := range errs.Fields {
		fmt.Fprintf(w, "%s: %s: %s\n", source, fe.Field, fe.Message)
	}
}

func newGenerateCmd(app *cli) *cobra.Command {
	var (
		contractType string
		out          outputOptions
	)
	cmd := &cobra.Command{
		Use:   "generate <submission-file|->...",
		Short: "Generate contract documents from submissions",
		Long: `Each input is a submission document {"contract_type": ..., "form_data": {...}}.
With --type the inputs are plain form data objects for that contract type.
Several inputs are generated concurrently.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			exporter, err := out.exporter(cmd, len(args) > 1)
			if err != nil {
				return err
			}
			svc, err := app.service(ctx)
			if err != nil {
				return err
			}

			subs := make([]model.FormSubmission, len(args))
			for idx, path := range args {
				if contractType != "" {
					data, err := readFormData(cmd, path)
					if err != nil {
						return err
					}
					subs[idx] = model.FormSubmission{ContractType: contractType, FormData: data}
					continue
				}
				sub, err := readSubmission(cmd, path)
				if err != nil {
					return err
				}
				subs[idx] = sub
			}

			multi := len(subs) > 1
			failed := 0
			for _, res := range svc.GenerateBatch(ctx, subs) {
				source := args[res.Index]
				if res.Err != nil {
					failed++
					printFieldErrors(cmd.ErrOrStderr(), source, res.Err)
					continue
				}
				if err := out.write(cmd, exporter, res.Document, source, multi); err != nil {
					return err
				}
			}
			if failed > 0 {
				app.logger.Debug("generate finished with failures", zap.Int("failed", failed))
				return fmt.Errorf("%d of %d submissions failed", failed, len(subs))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&contractType, "type", "", "Contract type for plain form data inputs")
	out.bind(cmd)
	return cmd
}

func newFillCmd(app *cli) *cobra.Command {
	var (
		prefillPath string
		savePath    string
		out         outputOptions
	)
	cmd := &cobra.Command{
		Use:   "fill <contract-type>",
		Short: "Fill in a contract interactively and generate it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			exporter, err := out.exporter(cmd, false)
			if err != nil {
				return err
			}
			svc, err := app.service(ctx)
			if err != nil {
				return err
			}
			tpl, err := svc.Template(args[0])
			if err != nil {
				return err
			}

			prefill := model.FormData{}
			if prefillPath != "" {
				if prefill, err = readFormData(cmd, prefillPath); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "%s\n%s\n\n", tpl.Title, tpl.Description)
			filler := prompt.New(prompt.WithDriver(app.promptDriver(cmd)))
			data, err := filler.Fill(ctx, tpl, prefill)
			if err != nil {
				if errors.Is(err, prompt.ErrAborted) {
					fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
				}
				return err
			}

			if savePath != "" {
				payload, err := json.MarshalIndent(data, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(savePath, payload, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", savePath, err)
				}
			}

			doc, err := svc.Generate(ctx, tpl.ID, data)
			if err != nil {
				if service.IsValidationFailure(err) {
					printFieldErrors(cmd.ErrOrStderr(), tpl.ID, err)
					return errInvalidSubmission
				}
				return err
			}
			return out.write(cmd, exporter, doc, tpl.ID, false)
		},
	}
	cmd.Flags().StringVar(&prefillPath, "prefill", "", "Form data file whose values are offered as defaults")
	cmd.Flags().StringVar(&savePath, "save-data", "", "Write the collected form data as JSON to this file")
	out.bind(cmd)
	return cmd
}

func newImportCmd(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [template-dir]",
		Short: "Copy template definitions into the SQLite database",
		Long: `Loads every definition from template-dir (or --templates, or the built-in set)
and writes it into the database named by --db.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			if app.dbPath == "" {
				return errors.New("import requires --db or " + envDB)
			}
			dbPath := app.dbPath
			// The source is a directory or the built-in set, never the target.
			app.dbPath = ""
			if len(args) == 1 {
				app.templatesDir = args[0]
			}
			store, err := app.loadStore(ctx)
			if err != nil {
				return err
			}

			db, err := sqlite.Open(ctx, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := sqlite.Import(ctx, db, store)
			if err != nil {
				return err
			}
			app.logger.Info("templates imported", zap.Int("count", n), zap.String("db", dbPath))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d templates into %s\n", n, dbPath)
			return nil
		},
	}
	return cmd
}

func newLintCmd(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint <path>...",
		Short: "Check template definition files and report problems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			for _, path := range args {
				found, err := definitionFiles(path)
				if err != nil {
					return err
				}
				files = append(files, found...)
			}

			errorsFound := 0
			for _, file := range files {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read %s: %w", file, err)
				}
				tpl, err := templates.Parse(data, templates.FormatFromPath(file), file)
				if err == nil {
					err = templates.Check(tpl)
				}
				if err != nil {
					errorsFound++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: error: %v\n", file, err)
					continue
				}
				for _, warning := range templates.Lint(tpl) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: warning: %s\n", file, warning)
				}
			}
			app.logger.Debug("lint finished", zap.Int("files", len(files)), zap.Int("errors", errorsFound))
			if errorsFound > 0 {
				return fmt.Errorf("%d of %d template files are invalid", errorsFound, len(files))
			}
			return nil
		},
	}
	return cmd
}

func definitionFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	err = filepath.WalkDir(path, func(p string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() && templates.FormatFromPath(p) != "" {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

func newHealthCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Load the templates and report service health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.service(commandContext(cmd))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), svc.Health())
		},
	}
}
