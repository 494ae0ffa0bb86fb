// Package cmd defines dtcli's command tree. It relies on
// github.com/spf13/cobra for subcommands and github.com/spf13/viper
// for config-file/env/flag layering, the same pairing qri-io/qri uses
// for its own CLI.
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/gocrdt/texttree"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configDefaultAgent = "defaultAgent"
	configMirrorRope   = "mirrorRopeCache"
)

var cfgFile string

// session is the single engine instance live for the process's
// lifetime; subcommands mutate it in place so a REPL line like
// "insert 0 hi" followed by "delete 0 2" sees its own prior edits.
var session = texttree.New()

// RootCmd is dtcli's entry point. Invoked with no subcommand, it reads
// whitespace-tokenized command lines from stdin and re-dispatches each
// one through itself, turning the command tree below into a REPL.
var RootCmd = &cobra.Command{
	Use:   "dtcli",
	Short: "interactive driver for the texttree operation engine",
	Run: func(cmd *cobra.Command, args []string) {
		runREPL()
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.dtcli.yaml)")
	RootCmd.PersistentFlags().String("agent", "", "default local agent name")
	viper.BindPFlag(configDefaultAgent, RootCmd.PersistentFlags().Lookup("agent"))
	RootCmd.PersistentFlags().Bool("mirror-rope", false, "accepted but has no effect: there is no rope cache")
	viper.BindPFlag(configMirrorRope, RootCmd.PersistentFlags().Lookup("mirror-rope"))

	RootCmd.AddCommand(insertCmd, deleteCmd, mergeTraceCmd, checkCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".dtcli")
		viper.SetConfigType("yaml")
	}
	viper.SetDefault(configDefaultAgent, "")
	viper.SetDefault(configMirrorRope, false)
	viper.SetEnvPrefix("DTCLI")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig() // no config file is perfectly fine

	session.WithLogger(logrus.WithField("component", "dtcli"))
}

// Execute runs the root command; main's sole job is to call this.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolvedAgent caches localAgent's result so a blank --agent config
// doesn't mint a fresh random agent id on every single REPL line.
var resolvedAgent texttree.AgentID

// localAgent returns the configured default agent, creating one via
// the engine's uuid-backed default if none was configured.
func localAgent() texttree.AgentID {
	if resolvedAgent == "" {
		resolvedAgent = session.GetOrCreateAgent(viper.GetString(configDefaultAgent))
	}
	return resolvedAgent
}

// runREPL reads one command per line from stdin until EOF, splitting
// on whitespace and re-running it through RootCmd so every subcommand
// below works both as `dtcli insert 0 hi` and as a REPL line.
func runREPL() {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprintln(os.Stdout, "dtcli ready; one of insert/delete/merge-trace/check per line")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		replCmd := &cobra.Command{Use: "dtcli"}
		replCmd.AddCommand(insertCmd, deleteCmd, mergeTraceCmd, checkCmd)
		replCmd.SetArgs(fields)
		if err := replCmd.Execute(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}
