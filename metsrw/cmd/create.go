package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"emperror.dev/emperror"
	"emperror.dev/errors"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/builder"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/checksum"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/dc"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/mets"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/premis"
	"github.com/artefactual-labs/mets-reader-writer-sub000/version"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:     "create [path to content folder] [path to mets file]",
	Aliases: []string{},
	Short:   "creates a METS document describing a directory tree",
	Long: "walks a directory tree and writes a METS document with a file section, structure maps, " +
		"checksums and a PREMIS object per file",
	Example: "metsrw create ./transfer/objects ./METS.xml --digest sha256 --fixity md5 --dublincore ./dc.json",
	Args:    cobra.ExactArgs(2),
	Run:     doCreate,
}

func initCreate() {
	createCmd.Flags().String("use", "", "USE of the files (default: original)")
	createCmd.Flags().StringP("digest", "d", "", fmt.Sprintf("digest for the METS checksum %v", checksum.DigestNames))
	createCmd.Flags().StringP("fixity", "f", "", "comma separated list of additional digest algorithms for PREMIS fixity")
	createCmd.Flags().String("premis-version", "", fmt.Sprintf("PREMIS version %v", premis.Versions()))
	createCmd.Flags().String("objid", "", "OBJID of the document")
	createCmd.Flags().String("originator", "", "message digest originator")
	createCmd.Flags().String("dublincore", "", "json, yaml or toml file with a Dublin Core record for the root directory")
	createCmd.Flags().Bool("default-namespace", false, "write METS elements without prefix")
	emperror.Panic(createCmd.MarkFlagFilename("dublincore", "json", "yaml", "yml", "toml"))
}

func doCreateConf(cmd *cobra.Command) {
	if str := getFlagString(cmd, "use"); str != "" {
		conf.Create.Use = str
	}
	if str := getFlagString(cmd, "digest"); str != "" {
		conf.Create.Digest = checksum.DigestAlgorithm(str)
	}
	if str := getFlagString(cmd, "fixity"); str != "" {
		conf.Create.Fixity = nil
		for _, alg := range strings.Split(str, ",") {
			if alg = strings.TrimSpace(alg); alg != "" {
				conf.Create.Fixity = append(conf.Create.Fixity, checksum.DigestAlgorithm(alg))
			}
		}
	}
	if str := getFlagString(cmd, "premis-version"); str != "" {
		conf.Create.PremisVersion = str
	}
	if str := getFlagString(cmd, "objid"); str != "" {
		conf.Create.ObjID = str
	}
	if str := getFlagString(cmd, "originator"); str != "" {
		conf.Create.Originator = str
	}
	if getFlagBool(cmd, "default-namespace") {
		conf.Create.FullyQualified = false
	}
}

func loadDublinCore(filename string) (*dc.DublinCore, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open '%s'", filename)
	}
	defer fp.Close()
	record, err := dc.Load(fp, filepath.Ext(filename))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load dublin core from '%s'", filename)
	}
	return record, nil
}

func doCreate(cmd *cobra.Command, args []string) {
	srcPath := filepath.Clean(args[0])
	metsPath := args[1]

	doCreateConf(cmd)
	if err := conf.Check(); err != nil {
		_ = cmd.Help()
		cobra.CheckErr(err)
	}

	logger, logCloser, err := createLogger(conf.Log)
	cobra.CheckErr(err)
	if logCloser != nil {
		defer logCloser.Close()
	}
	t := startTimer()
	defer func() { logger.Info().Msgf("Duration: %s", t.String()) }()

	fi, err := os.Stat(srcPath)
	if err != nil {
		logger.Error().Stack().Err(err).Msgf("cannot stat '%s'", srcPath)
		return
	}
	if !fi.IsDir() {
		logger.Error().Msgf("'%s' is not a directory", srcPath)
		return
	}

	var record *dc.DublinCore
	if dcFile := getFlagString(cmd, "dublincore"); dcFile != "" {
		if record, err = loadDublinCore(dcFile); err != nil {
			logger.Error().Stack().Err(err).Msg("cannot load dublin core record")
			return
		}
	}

	factory := newFactory()
	b, err := builder.New(factory, os.DirFS(filepath.Dir(srcPath)), logger,
		builder.WithUse(conf.Create.Use),
		builder.WithDigests(conf.Create.Digests()...),
		builder.WithPremisVersion(conf.Create.PremisVersion),
		builder.WithOriginator(conf.Create.Originator),
	)
	if err != nil {
		logger.Error().Stack().Err(err).Msg("cannot create builder")
		return
	}
	logger.Info().Msgf("reading '%s'", srcPath)
	root, err := b.Build(context.Background(), filepath.ToSlash(filepath.Base(srcPath)))
	if err != nil {
		logger.Error().Stack().Err(err).Msgf("cannot build entries of '%s'", srcPath)
		return
	}
	if record != nil {
		if _, err := root.AddDublinCore(record); err != nil {
			logger.Error().Stack().Err(err).Msg("cannot attach dublin core record")
			return
		}
	}

	doc := mets.NewDocument(factory, logger, documentOptions()...)
	doc.ObjID = conf.Create.ObjID
	creator := conf.Create.Originator
	if creator == "" {
		creator = version.Agent()
	}
	doc.Agents = append(doc.Agents, &mets.Agent{Role: "CREATOR", Type: "OTHER", Name: creator})
	doc.Append(root)
	if err := doc.WriteFile(metsPath); err != nil {
		logger.Error().Stack().Err(err).Msgf("cannot write '%s'", metsPath)
		return
	}
	logger.Info().Msgf("%d entries written to '%s'", doc.Len(), metsPath)
	fmt.Printf("METS document '%s' created without errors\n", metsPath)
}
