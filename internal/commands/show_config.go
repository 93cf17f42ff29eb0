package contextgather

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/contextgather/internal/appconfig"
)

// showConfigCmd implements the 'show config' command, which displays the current configuration settings.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the config file is loaded properly and overridden by env vars and flags accordingly.`,
	Run: func(cmd *cobra.Command, args []string) {
		fallback := appconfig.Defaults()
		fallback.ChunkSize = viper.GetInt("chunkSize")
		fallback.HeaderMode = viper.GetString("headerMode")
		fallback.Tokenizer = viper.GetString("tokenizer")
		fallback.TokenizerModel = viper.GetString("tokenizerModel")
		fallback.Debug = viper.GetBool("debug")
		appconfig.ShowConfig(cmd.OutOrStdout(), viper.ConfigFileUsed(), GetConfig(), fallback)
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
}
