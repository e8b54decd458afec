package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kochmarvin/docedit"
	"github.com/kochmarvin/docedit/internal/config"
	"github.com/kochmarvin/docedit/internal/host/memdoc"
	"github.com/kochmarvin/docedit/internal/planner"
	"github.com/kochmarvin/docedit/internal/render"
	"github.com/kochmarvin/docedit/internal/semantic"
)

func main() {
	root := &cobra.Command{
		Use:           "docedit",
		Short:         "Validate and apply AI-generated edit plans to documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := config.Init(); err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.Logging.SlogLevel(),
		})))
		return nil
	}

	root.AddCommand(newValidateCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newApplyCmd())
	root.AddCommand(newPlanCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <plan.json>",
		Short: "Validate an edit plan without applying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			plan, err := docedit.ValidateEditPlan(raw)
			if err != nil {
				return err
			}
			if len(plan.Actions) == 0 {
				sem, err := docedit.ValidateSemanticEditPlan(raw)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "valid semantic plan: %d op(s)\n", len(sem.Ops))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid plan: %d action(s)\n", len(plan.Actions))
			return nil
		},
	}
}

func newExtractCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "extract <doc.md>",
		Short: "Extract the block structure of a Markdown document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			snapshot, err := docedit.ExtractSemanticDocument(cmd.Context(), doc)
			if err != nil {
				return err
			}
			switch format {
			case "json":
				b, err := render.RenderJSON(snapshot)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
			case "markdown":
				fmt.Fprint(cmd.OutOrStdout(), render.RenderDocumentMarkdown(snapshot))
			default:
				return fmt.Errorf("unknown format %q (want json or markdown)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or markdown")
	return cmd
}

func newApplyCmd() *cobra.Command {
	var output string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "apply <doc.md> <plan.json>",
		Short: "Apply an edit plan to a Markdown document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			res := docedit.ApplyPlan(cmd.Context(), doc, raw, nil, docedit.ApplyOptions{
				Scorer: docedit.ScorerByName(cfg.Match.Scorer),
			})
			if asJSON {
				b, err := render.RenderJSON(&res)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), render.StatusLine(&res))
			}
			if !res.OK {
				return fmt.Errorf("plan failed: %s", res.Message)
			}

			if output == "" {
				output = args[0]
			}
			return os.WriteFile(output, []byte(doc.Markdown()), 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the edited document here instead of in place")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func newPlanCmd() *cobra.Command {
	var apply bool
	var output string
	cmd := &cobra.Command{
		Use:   "plan <doc.md> <instruction>",
		Short: "Ask the configured AI backend for an edit plan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			snapshot, err := semantic.Extract(cmd.Context(), doc)
			if err != nil {
				return err
			}

			result, err := planner.Request(cmd.Context(), snapshot, args[1], planner.Options{
				Provider:    cfg.Planner.Provider,
				Model:       cfg.Planner.Model,
				MaxTokens:   cfg.Planner.MaxTokens,
				Temperature: cfg.Planner.Temperature,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Raw)

			if !apply {
				return nil
			}
			res := docedit.ApplyPlan(cmd.Context(), doc, []byte(result.Raw), snapshot, docedit.ApplyOptions{
				Scorer: docedit.ScorerByName(cfg.Match.Scorer),
			})
			fmt.Fprintln(cmd.OutOrStdout(), render.StatusLine(&res))
			if !res.OK {
				return fmt.Errorf("plan failed: %s", res.Message)
			}
			if output == "" {
				output = args[0]
			}
			return os.WriteFile(output, []byte(doc.Markdown()), 0o644)
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "apply the returned plan to the document")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the edited document here instead of in place")
	cmd.Flags().StringP("provider", "p", "", "AI provider (anthropic, openai, google)")
	cmd.Flags().StringP("model", "m", "", "model identifier")
	_ = viper.BindPFlag("planner.provider", cmd.Flags().Lookup("provider"))
	_ = viper.BindPFlag("planner.model", cmd.Flags().Lookup("model"))
	return cmd
}

func loadDocument(path string) (*memdoc.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return memdoc.FromMarkdown(string(b)), nil
}
