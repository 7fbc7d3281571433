package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastygo/taskboard/usecase/uistate"
)

func (a *app) prefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change local preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state := a.ui.State()
			a.view.printf("%s: %s\n%s: %s\n", a.tr.T("theme"), state.Theme, a.tr.T("language"), state.Language)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Set the color theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(uistate.ThemeLight), string(uistate.ThemeDark), "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				theme uistate.Theme
				err   error
			)
			if len(args) == 0 || args[0] == "toggle" {
				theme, err = a.ui.ToggleTheme()
			} else {
				theme = uistate.Theme(args[0])
				err = a.ui.SetTheme(theme)
			}
			if err != nil {
				return err
			}
			a.view.success(a.tr.T("themeSet", map[string]interface{}{"Theme": string(theme)}))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "lang <tag>",
		Short: "Set the output language (en, fr)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := a.ui.SetLanguage(args[0])
			if err != nil {
				return fmt.Errorf("set language: %w", err)
			}
			a.view.success(a.tr.T("languageSet", map[string]interface{}{"Language": lang}))
			return nil
		},
	})
	return cmd
}
