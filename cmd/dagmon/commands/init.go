package commands

import (
	"github.com/spf13/cobra"

	"github.com/dagbft/dagmon/config"
	"github.com/dagbft/dagmon/libs/log"
)

// InitFilesCmd returns the command that writes the default config file under
// the home directory. An existing config file is left untouched.
func InitFilesCmd(conf *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the dagmon home directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.EnsureRoot(conf.RootDir)

			if config.ConfigFileExists(conf.RootDir) {
				logger.Info("found existing config file", "root", conf.RootDir)
				return nil
			}

			if err := config.WriteConfigFile(conf.RootDir, conf); err != nil {
				return err
			}
			logger.Info("generated config file", "root", conf.RootDir)
			return nil
		},
	}
}
