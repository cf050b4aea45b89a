package cmd

import (
	"fmt"

	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/mets"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/premis"
	"github.com/spf13/cobra"
)

var rewriteCmd = &cobra.Command{
	Use:     "rewrite [path to mets file] [path to new mets file]",
	Aliases: []string{},
	Short:   "parses and serializes a METS document",
	Long: "reads a METS document and writes it again, the original creation date is kept and the\n" +
		"last modification date is set. Optionally adds the transform files of packages.",
	Example: "metsrw rewrite ./METS.xml ./METS.new.xml --add-transforms",
	Args:    cobra.ExactArgs(2),
	Run:     doRewrite,
}

func initRewrite() {
	rewriteCmd.Flags().Bool("add-transforms", false, "add decryption and decompression transform files to packages from their PREMIS events")
	rewriteCmd.Flags().Bool("default-namespace", false, "write METS elements without prefix")
}

func doRewriteConf(cmd *cobra.Command) {
	if getFlagBool(cmd, "default-namespace") {
		conf.Create.FullyQualified = false
	}
}

func doRewrite(cmd *cobra.Command, args []string) {
	srcPath := args[0]
	destPath := args[1]

	doRewriteConf(cmd)
	logger, logCloser, err := createLogger(conf.Log)
	cobra.CheckErr(err)
	if logCloser != nil {
		defer logCloser.Close()
	}

	doc, err := mets.ParseFile(newFactory(), srcPath, logger, documentOptions()...)
	if err != nil {
		logger.Error().Stack().Err(err).Msgf("cannot parse '%s'", srcPath)
		return
	}
	if getFlagBool(cmd, "add-transforms") {
		for _, entry := range doc.AllEntries() {
			if entry.Kind() != mets.KindAIP || len(entry.TransformFiles()) > 0 {
				continue
			}
			if err := premis.AddPackageTransforms(entry); err != nil {
				logger.Error().Stack().Err(err).Msgf("cannot add transform files to '%s'", entry.Path())
				return
			}
			logger.Info().Msgf("added %d transform files to '%s'", len(entry.TransformFiles()), entry.Path())
		}
	}
	if err := doc.WriteFile(destPath); err != nil {
		logger.Error().Stack().Err(err).Msgf("cannot write '%s'", destPath)
		return
	}
	fmt.Printf("'%s' written to '%s'\n", srcPath, destPath)
}
