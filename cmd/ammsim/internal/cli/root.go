package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	logger = logrus.StandardLogger()
	v      = viper.New()
)

// Execute builds the root command tree and runs it.
func Execute() error {
	root := &cobra.Command{
		Use:   "ammsim",
		Short: "Offline automated market maker simulator",
		Long: "ammsim drives simulated trade and arbitrage traffic through AMM, CSMM, " +
			"MAMM, MCSMM, PMM, and MPMM pools and reports the resulting economics.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v.SetConfigName("ammsim")
			v.AddConfigPath(".")
			v.SetEnvPrefix("AMMSIM")
			v.AutomaticEnv()
			if err := v.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return err
				}
			}

			level, err := logrus.ParseLevel(v.GetString("log-level"))
			if err != nil {
				level = logrus.InfoLevel
			}
			logger.SetLevel(level)
			return nil
		},
	}

	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newSimulateCmd())
	root.AddCommand(newSimulateMultiCmd())
	root.AddCommand(newSpotV3Cmd())

	return root.Execute()
}
