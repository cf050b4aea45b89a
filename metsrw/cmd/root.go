package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"emperror.dev/errors"
	"github.com/artefactual-labs/mets-reader-writer-sub000/config"
	"github.com/artefactual-labs/mets-reader-writer-sub000/version"
	"github.com/spf13/cobra"
)

// all possible flags of all modules go here
var persistentFlagConfigFile string
var persistentFlagLogfile string
var persistentFlagLoglevel string

var conf *config.METSConfig

var rootCmd = &cobra.Command{
	Use:   "metsrw",
	Short: "metsrw creates, inspects, validates and rewrites METS documents",
	Long: fmt.Sprintf(`A METS reader and writer with PREMIS and Dublin Core support.
Builds METS documents from directory trees, summarizes the preservation
metadata of existing documents and validates them with external tools.
Version %s (%s, %s)`, version.Version, version.ShortCommit(), version.Date),
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func getFlagString(cmd *cobra.Command, flag string) string {
	str, err := cmd.Flags().GetString(flag)
	if err != nil {
		_ = cmd.Help()
		cobra.CheckErr(errors.Errorf("cannot get flag %s: %v", flag, err))
	}
	return str
}

func getFlagBool(cmd *cobra.Command, flag string) bool {
	b, err := cmd.Flags().GetBool(flag)
	if err != nil {
		_ = cmd.Help()
		cobra.CheckErr(errors.Errorf("cannot get flag %s: %v", flag, err))
	}
	return b
}

func initConfig() {
	var data = config.DefaultConfig
	// load config file
	if persistentFlagConfigFile != "" {
		var err error
		data, err = os.ReadFile(persistentFlagConfigFile)
		if err != nil {
			_ = rootCmd.Help()
			log.Fatalf("error reading config file %s: %v\n", persistentFlagConfigFile, err)
		}
	}
	var err error
	conf, err = config.LoadMETSConfig(string(data))
	if err != nil {
		_ = rootCmd.Help()
		log.Fatalf("error loading config file %s: %v\n", persistentFlagConfigFile, err)
	}

	// overwrite config file with command line data
	if persistentFlagLogfile != "" {
		conf.Log.File = persistentFlagLogfile
	}
	if persistentFlagLoglevel != "" {
		conf.Log.Level = strings.ToUpper(persistentFlagLoglevel)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&persistentFlagConfigFile, "config", "", "config file (default: built-in)")
	rootCmd.PersistentFlags().StringVar(&persistentFlagLogfile, "log-file", "", "log output file (default is console)")
	rootCmd.PersistentFlags().StringVar(&persistentFlagLoglevel, "log-level", "", fmt.Sprintf("log level %v", config.LogLevels))

	initCreate()
	initInspect()
	initValidate()
	initRewrite()
	rootCmd.AddCommand(createCmd, inspectCmd, validateCmd, rewriteCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
