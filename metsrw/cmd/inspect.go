package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"emperror.dev/errors"
	"github.com/artefactual-labs/mets-reader-writer-sub000/config"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/dc"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/mets"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/premis"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var inspectCmd = &cobra.Command{
	Use:     "inspect [path to mets file]",
	Aliases: []string{"info"},
	Short:   "summarizes the files and preservation metadata of a METS document",
	Example: "metsrw inspect ./METS.xml --format yaml",
	Args:    cobra.ExactArgs(1),
	Run:     doInspect,
}

func initInspect() {
	inspectCmd.Flags().String("format", "", fmt.Sprintf("output format %v", config.InspectFormats))
	inspectCmd.Flags().String("output", "", "output file (default stdout)")
}

func doInspectConf(cmd *cobra.Command) {
	if str := getFlagString(cmd, "format"); str != "" {
		conf.Inspect.Format = str
	}
}

type inspectFile struct {
	premis.FileMetadata `yaml:",inline"`
	HumanSize           string `json:"humanSize,omitempty" yaml:"humanSize,omitempty"`
}

type inspectDirectory struct {
	Path       string          `json:"path" yaml:"path"`
	Empty      bool            `json:"empty,omitempty" yaml:"empty,omitempty"`
	DublinCore []*dc.DublinCore `json:"dublinCore,omitempty" yaml:"dublinCore,omitempty"`
}

type inspectResult struct {
	ObjID       string             `json:"objid,omitempty" yaml:"objid,omitempty"`
	CreateDate  string             `json:"createDate,omitempty" yaml:"createDate,omitempty"`
	Directories []inspectDirectory `json:"directories,omitempty" yaml:"directories,omitempty"`
	Files       []inspectFile      `json:"files" yaml:"files"`
	TotalSize   string             `json:"totalSize" yaml:"totalSize"`
}

func inspect(doc *mets.Document) (*inspectResult, error) {
	result := &inspectResult{
		ObjID:      doc.ObjID,
		CreateDate: doc.CreateDate,
	}
	var total uint64
	for _, entry := range doc.AllEntries() {
		if entry.IsDirectory() {
			dir := inspectDirectory{Path: entry.Path(), Empty: entry.IsEmptyDir()}
			mds, err := entry.Metadata(mets.MDTypeDC)
			if err != nil {
				return nil, errors.Wrapf(err, "cannot read dublin core of '%s'", entry.Path())
			}
			for _, md := range mds {
				if record, ok := md.(*dc.DublinCore); ok {
					dir.DublinCore = append(dir.DublinCore, record)
				}
			}
			result.Directories = append(result.Directories, dir)
			continue
		}
		fm, err := premis.SummarizeEntry(entry)
		if err != nil {
			return nil, err
		}
		file := inspectFile{FileMetadata: *fm}
		if fm.Size >= 0 {
			file.HumanSize = humanize.Bytes(uint64(fm.Size))
			total += uint64(fm.Size)
		}
		result.Files = append(result.Files, file)
	}
	result.TotalSize = humanize.Bytes(total)
	return result, nil
}

func doInspect(cmd *cobra.Command, args []string) {
	metsPath := args[0]

	doInspectConf(cmd)
	if err := conf.Check(); err != nil {
		_ = cmd.Help()
		cobra.CheckErr(err)
	}
	logger, logCloser, err := createLogger(conf.Log)
	cobra.CheckErr(err)
	if logCloser != nil {
		defer logCloser.Close()
	}

	doc, err := mets.ParseFile(newFactory(), metsPath, logger)
	if err != nil {
		logger.Error().Stack().Err(err).Msgf("cannot parse '%s'", metsPath)
		return
	}
	result, err := inspect(doc)
	if err != nil {
		logger.Error().Stack().Err(err).Msgf("cannot inspect '%s'", metsPath)
		return
	}

	var data []byte
	switch conf.Inspect.Format {
	case "yaml":
		data, err = yaml.Marshal(result)
	default:
		data, err = json.MarshalIndent(result, "", "  ")
	}
	if err != nil {
		logger.Error().Stack().Err(err).Msgf("cannot marshal %s", conf.Inspect.Format)
		return
	}
	if output := getFlagString(cmd, "output"); output != "" {
		if err := os.WriteFile(output, data, 0644); err != nil {
			logger.Error().Stack().Err(err).Msgf("cannot write '%s'", output)
		}
		return
	}
	if _, err := os.Stdout.Write(data); err != nil {
		logger.Error().Stack().Err(err).Msg("cannot write to standard output")
		return
	}
	fmt.Print("\n")
}
