package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-corepanel/pkg/render"
	"github.com/goliatone/go-corepanel/pkg/renderers/html"
	"github.com/goliatone/go-corepanel/pkg/renderers/prompt"
	"github.com/goliatone/go-corepanel/pkg/renderers/text"
	"github.com/goliatone/go-corepanel/pkg/schema"
)

var (
	formFormat string
	formDialog bool
)

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Render or fill a form document offline",
}

var formRenderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render a form document as text or HTML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		form, err := loadForm(args[0])
		if err != nil {
			return err
		}

		htmlRenderer, err := html.New()
		if err != nil {
			return err
		}
		registry, err := render.NewRegistry(text.New(), htmlRenderer)
		if err != nil {
			return err
		}

		name := formFormat
		if name == "" {
			name = cfg.Renderer
		}
		if !registry.Has(name) {
			return fmt.Errorf("unknown format %q (available: %s)", name, strings.Join(registry.List(), ", "))
		}
		out, err := registry.Render(cmd.Context(), name, form)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var formFillCmd = &cobra.Command{
	Use:   "fill <file>",
	Short: "Fill a form document with prompts and print the resulting action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		form, err := loadForm(args[0])
		if err != nil {
			return err
		}
		filler := prompt.New(prompt.WithPromptDriver(prompt.NewSurveyDriver(out)))
		action, err := filler.Fill(cmd.Context(), form)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "action: %s\nkey: %s\n", action.Kind, action.Key)
		keys := make([]string, 0, len(action.Data))
		for k := range action.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %s = %q\n", k, action.Data[k])
		}
		return nil
	},
}

func loadForm(path string) (*render.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := schema.Decode(data)
	if err != nil {
		return nil, err
	}
	surface := render.Inline
	if formDialog {
		surface = render.Dialog
	}
	return render.Render(doc, surface, nil, render.WithLogger(logger)), nil
}

func init() {
	formCmd.PersistentFlags().BoolVar(&formDialog, "dialog", false, "render on the dialog surface")
	formRenderCmd.Flags().StringVarP(&formFormat, "format", "f", "", "output format: text or html (default from config)")

	formCmd.AddCommand(formRenderCmd)
	formCmd.AddCommand(formFillCmd)
}
