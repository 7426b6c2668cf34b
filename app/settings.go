package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/GoUserHub/GoUserHub/internal/config"
	"github.com/GoUserHub/GoUserHub/internal/daemon"
	"github.com/GoUserHub/GoUserHub/internal/db/controller/setting"
)

func init() { //nolint: gochecknoinits
	settingsResetCmd.Flags().StringVar(&configPath, "config", "", "Path to the configuration directory")

	settingsCmd.AddCommand(settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

var (
	settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "Manage application settings",
	}

	settingsResetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Reset all application settings to the built-in defaults",
		PreRun: func(_ *cobra.Command, _ []string) {
			if cfg, err = config.ReadConfig(configPath); err != nil {
				panic(err)
			}
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			db, errOpen := daemon.OpenDB(&cfg)
			if errOpen != nil {
				return errOpen
			}

			if errReset := setting.ResetToDefaults(db); errReset != nil {
				return errReset
			}

			log.Info().Msg("settings were reset to defaults")

			return nil
		},
	}
)
