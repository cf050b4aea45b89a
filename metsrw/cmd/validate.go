package cmd

import (
	"context"
	"fmt"
	"time"

	"emperror.dev/errors"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/mets"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/validate"
	configutil "github.com/je4/utils/v2/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:     "validate [path to mets file]",
	Aliases: []string{"check"},
	Short:   "validates a METS document with an XML schema and schematron rules",
	Long: "parses a METS document and runs the configured schema validator and rule processor on it.\n" +
		"The commands may contain the placeholders {file}, {schema} and {rules}.",
	Example: "metsrw validate ./METS.xml --schema ./mets.xsd --rules ./mets_rules.xsl",
	Args:    cobra.ExactArgs(1),
	Run:     doValidate,
}

func initValidate() {
	validateCmd.Flags().String("schema", "", "METS XML schema file")
	validateCmd.Flags().String("rules", "", "compiled schematron rules (xslt)")
	validateCmd.Flags().String("xsd-command", "", "schema validation command")
	validateCmd.Flags().String("rule-command", "", "rule validation command, must write SVRL to standard output")
	validateCmd.Flags().Bool("no-wrap-schema", false, "do not import the schemas of embedded metadata")
	validateCmd.Flags().Duration("timeout", 0, "timeout of the validation")
}

func doValidateConf(cmd *cobra.Command) {
	if str := getFlagString(cmd, "schema"); str != "" {
		conf.Validate.Schema = configutil.EnvString(str)
	}
	if str := getFlagString(cmd, "rules"); str != "" {
		conf.Validate.Rules = configutil.EnvString(str)
	}
	if str := getFlagString(cmd, "xsd-command"); str != "" {
		conf.Validate.XSDCommand = str
	}
	if str := getFlagString(cmd, "rule-command"); str != "" {
		conf.Validate.RuleCommand = str
	}
	if getFlagBool(cmd, "no-wrap-schema") {
		conf.Validate.WrapSchema = false
	}
	if d, err := cmd.Flags().GetDuration("timeout"); err == nil && d > 0 {
		conf.Validate.Timeout = configutil.Duration(d)
	}
}

func doValidate(cmd *cobra.Command, args []string) {
	metsPath := args[0]

	doValidateConf(cmd)
	logger, logCloser, err := createLogger(conf.Log)
	cobra.CheckErr(err)
	if logCloser != nil {
		defer logCloser.Close()
	}
	t := startTimer()
	defer func() { logger.Info().Msgf("Duration: %s", t.String()) }()

	xsdCommand := conf.Validate.XSDCommand
	if conf.Validate.Schema == "" {
		logger.Warn().Msg("no schema configured, skipping schema validation")
		xsdCommand = ""
	}
	ruleCommand := conf.Validate.RuleCommand
	if conf.Validate.Rules == "" {
		logger.Warn().Msg("no rules configured, skipping rule validation")
		ruleCommand = ""
	}
	validator, err := validate.NewCommandValidator(validate.CommandConfig{
		XSDCommand:  xsdCommand,
		RuleCommand: ruleCommand,
		Schema:      string(conf.Validate.Schema),
		Rules:       string(conf.Validate.Rules),
		Timeout:     time.Duration(conf.Validate.Timeout),
		WrapSchema:  conf.Validate.WrapSchema,
	}, logger)
	if err != nil {
		_ = cmd.Help()
		cobra.CheckErr(errors.Wrap(err, "cannot create validator"))
	}

	if _, err := mets.ParseFile(newFactory(), metsPath, logger); err != nil {
		logger.Error().Stack().Err(err).Msgf("cannot parse '%s'", metsPath)
		cobra.CheckErr(errors.Wrapf(err, "'%s' is not a readable METS document", metsPath))
	}
	valid, report, err := validator.ValidateFile(context.Background(), metsPath)
	if err != nil {
		logger.Error().Stack().Err(err).Msgf("cannot validate '%s'", metsPath)
		cobra.CheckErr(err)
	}
	if !valid {
		fmt.Println(report.String())
		cobra.CheckErr(errors.Errorf("'%s' is not valid", metsPath))
	}
	fmt.Printf("'%s' is valid\n", metsPath)
}
