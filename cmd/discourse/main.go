package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "discourse",
	Short:         "Administer a Discourse forum through its REST API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	v := viper.GetViper()
	v.SetDefault("config", "")
	v.SetDefault("protocol", "")
	v.SetDefault("no_store", false)

	// Environment variables support: DISCOURSE_HOST, DISCOURSE_API_KEY, ...
	v.SetEnvPrefix("DISCOURSE")
	v.AutomaticEnv()

	pf := rootCmd.PersistentFlags()
	pf.String("config", v.GetString("config"), "path to a config yaml")
	pf.String("host", "", "forum host, e.g. forum.example.com")
	pf.String("api-key", "", "admin API key")
	pf.String("api-username", "", "default acting user (api_username)")
	pf.String("protocol", v.GetString("protocol"), "http or https")
	pf.Bool("no-store", v.GetBool("no_store"), "do not record calls in the history store")

	_ = v.BindPFlag("config", pf.Lookup("config"))
	_ = v.BindPFlag("host", pf.Lookup("host"))
	_ = v.BindPFlag("api_key", pf.Lookup("api-key"))
	_ = v.BindPFlag("api_username", pf.Lookup("api-username"))
	_ = v.BindPFlag("protocol", pf.Lookup("protocol"))
	_ = v.BindPFlag("no_store", pf.Lookup("no-store"))

	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(topicCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(settingCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitHandler.LogFatalError(err, "command execution failed")
	}
}
