package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-corepanel/pkg/panel"
	"github.com/goliatone/go-corepanel/pkg/render"
	"github.com/goliatone/go-corepanel/pkg/renderers/prompt"
	"github.com/goliatone/go-corepanel/pkg/renderers/text"
	"github.com/goliatone/go-corepanel/pkg/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session <extension-id>",
	Short: "Run an extension session with line prompts",
	Long: `session opens the extension's session and answers every form it pushes
with terminal prompts. Interrupting a prompt closes the session.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		client, p, err := openPanel()
		if err != nil {
			return err
		}
		defer client.Close()
		defer p.Close()

		if _, err := p.ShowExtensionList(ctx); err != nil {
			return err
		}
		if err := p.OpenExtension(ctx, args[0]); err != nil {
			return err
		}

		view := text.New()
		filler := prompt.New(prompt.WithPromptDriver(prompt.NewSurveyDriver(out)))

		for {
			var ev panel.Event
			select {
			case <-ctx.Done():
				p.Session().Release()
				return nil
			case ev = <-p.Events():
			}

			switch ev.Kind {
			case panel.EventDiagnostic:
				fmt.Fprintln(cmd.ErrOrStderr(), ev.Diagnostic.String())
			case panel.EventMode:
				if ev.Mode == panel.ExtensionList {
					return nil
				}
			case panel.EventSession:
				switch ev.Session.State {
				case session.Ended:
					fmt.Fprintln(out, "session ended")
					return nil
				case session.Failed:
					return ev.Session.Err
				}
			case panel.EventForm:
				form := ev.Change.Form
				if ev.Change.Kind != render.ChangeMounted || form == nil || form.Detached() {
					continue
				}
				fmt.Fprintln(out, view.View(form, text.NoFocus))

				_, err := filler.Fill(ctx, form)
				switch {
				case err == nil, errors.Is(err, render.ErrDetached):
				case errors.Is(err, prompt.ErrAborted):
					if form.Surface() == render.Dialog {
						continue
					}
					return p.Session().Stop(ctx)
				default:
					return err
				}
			}
		}
	},
}
