package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ejcarter/paperboy/internal/config"
)

var (
	cfgFile    string
	dbURL      string
	workerAddr string
	timeout    time.Duration
	outputJSON bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "paperboyctl",
	Short: "Paperboy CLI - operate the newsletter delivery service",
	Long: `Paperboy CLI (paperboyctl) is a command line tool for operating the
paperboy newsletter delivery service.

You can use it to publish newsletter issues and check the health of a
running worker.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.paperboyctl.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "postgres connection string (defaults to the DB_* env vars)")
	rootCmd.PersistentFlags().StringVar(&workerAddr, "worker", "localhost:8082", "worker address (host:port)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")

	// Bind flags to viper
	viper.BindPFlag("db-url", rootCmd.PersistentFlags().Lookup("db-url"))
	viper.BindPFlag("worker", rootCmd.PersistentFlags().Lookup("worker"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".paperboyctl")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// Override global variables with config values if flags weren't explicitly set
	if !rootCmd.PersistentFlags().Changed("db-url") {
		if s := viper.GetString("db-url"); s != "" {
			dbURL = s
		}
	}
	if !rootCmd.PersistentFlags().Changed("worker") {
		if s := viper.GetString("worker"); s != "" {
			workerAddr = s
		}
	}
	if !rootCmd.PersistentFlags().Changed("timeout") {
		if d := viper.GetDuration("timeout"); d > 0 {
			timeout = d
		}
	}
	if !rootCmd.PersistentFlags().Changed("json") {
		outputJSON = viper.GetBool("json")
	}
}

// resolveDSN returns the --db-url flag when set, falling back to the same
// DB_* environment variables the worker reads.
func resolveDSN() string {
	if dbURL != "" {
		return dbURL
	}
	return config.FromEnv().DSN()
}

// printOutput prints the response in the requested format
func printOutput(v interface{}) {
	if outputJSON {
		jsonData, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error marshaling to JSON: %v\n", err)
			return
		}
		fmt.Println(string(jsonData))
	} else {
		fmt.Printf("%+v\n", v)
	}
}
