// Package cmd provides the command-line interface of MobilCoder.
//
// Configuration sources, highest priority first:
//  1. Command-line flags (--config, --port, --log-level, ...)
//  2. MOBILCODER_CONFIG_FILE: path of the configuration file
//  3. Individual environment variables (MOBILCODER_SERVER_PORT, ...)
//  4. The .mobilcoder.yml file in the working directory
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mobilcoder",
	Short: "A front-end code playground with live preview",
	Long: `MobilCoder is a front-end code playground. A project holds one markup,
one style and one script pane; each pane may be written in a dialect
(Markdown, Sass, SCSS, Less, TypeScript, JSX, TSX) that is compiled down to
plain HTML, CSS and JavaScript and previewed live in the browser.

Quick Start:
  mobilcoder serve                 Start the playground
  mobilcoder projects new Demo     Create a stored project
  mobilcoder compile Demo          Write Demo.html
  mobilcoder watch ./site          Sync a project from files on disk`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .mobilcoder.yml, can also use MOBILCODER_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("store", "", "project store path (default .mobilcoder/projects.db)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("storage.path", rootCmd.PersistentFlags().Lookup("store"))
}

// initConfig points viper at the configuration file and the environment.
// A missing file is not an error; defaults fill every unset value.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("MOBILCODER_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mobilcoder")
	}

	viper.SetEnvPrefix("MOBILCODER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
