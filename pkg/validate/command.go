package validate

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/mets"
	"github.com/beevik/etree"
	"github.com/google/shlex"
	"github.com/je4/utils/v2/pkg/zLogger"
)

// CommandConfig configures the external programs used for validation.
// Commands may contain the placeholders {file}, {schema} and {rules}.
type CommandConfig struct {
	XSDCommand  string
	RuleCommand string
	Schema      string
	Rules       string
	Timeout     time.Duration
	// WrapSchema imports the schemas of embedded metadata into Schema
	WrapSchema bool
}

type command struct {
	name string
	args []string
}

func parseCommand(name, cmdline string) (*command, error) {
	if strings.TrimSpace(cmdline) == "" {
		return nil, nil
	}
	parts, err := shlex.Split(cmdline)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse %s '%s'", name, cmdline)
	}
	if len(parts) < 1 {
		return nil, errors.Errorf("%s is empty", name)
	}
	return &command{name: parts[0], args: parts[1:]}, nil
}

func (c *command) expand(placeholders map[string]string) []string {
	args := make([]string, 0, len(c.args))
	for _, arg := range c.args {
		for key, value := range placeholders {
			arg = strings.ReplaceAll(arg, "{"+key+"}", value)
		}
		args = append(args, arg)
	}
	return args
}

// CommandValidator runs a schema validator (e.g. xmllint) and a rule
// processor producing SVRL (e.g. xsltproc with a compiled schematron) on
// the serialized document.
type CommandValidator struct {
	xsd        *command
	rules      *command
	schemaFile string
	rulesFile  string
	timeout    time.Duration
	wrapSchema bool
	logger     zLogger.ZLogger
}

func NewCommandValidator(conf CommandConfig, logger zLogger.ZLogger) (*CommandValidator, error) {
	xsd, err := parseCommand("xsd command", conf.XSDCommand)
	if err != nil {
		return nil, err
	}
	rules, err := parseCommand("rule command", conf.RuleCommand)
	if err != nil {
		return nil, err
	}
	if xsd == nil && rules == nil {
		return nil, errors.New("no validation command configured")
	}
	return &CommandValidator{
		xsd:        xsd,
		rules:      rules,
		schemaFile: conf.Schema,
		rulesFile:  conf.Rules,
		timeout:    conf.Timeout,
		wrapSchema: conf.WrapSchema,
		logger:     logger,
	}, nil
}

var _ Validator = (*CommandValidator)(nil)

func (v *CommandValidator) Validate(ctx context.Context, doc *mets.Document) (bool, *Report, error) {
	data, err := doc.Bytes()
	if err != nil {
		return false, nil, errors.Wrap(err, "cannot serialize document")
	}
	tmpFile, err := os.CreateTemp(os.TempDir(), "metsrw_*.xml")
	if err != nil {
		return false, nil, errors.Wrap(err, "cannot create temp file")
	}
	tmpFilename := tmpFile.Name()
	defer func() {
		_ = os.Remove(tmpFilename)
	}()
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return false, nil, errors.Wrapf(err, "cannot write '%s'", tmpFilename)
	}
	if err := tmpFile.Close(); err != nil {
		return false, nil, errors.Wrapf(err, "cannot close '%s'", tmpFilename)
	}
	return v.ValidateFile(ctx, tmpFilename)
}

// ValidateFile validates a METS file on disk.
func (v *CommandValidator) ValidateFile(ctx context.Context, filename string) (bool, *Report, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}
	report := &Report{XSDValid: true, RulesValid: true}
	placeholders := map[string]string{
		"file":   filepath.ToSlash(filename),
		"schema": filepath.ToSlash(v.schemaFile),
		"rules":  filepath.ToSlash(v.rulesFile),
	}
	if v.xsd != nil {
		if v.wrapSchema && v.schemaFile != "" {
			wrapped, err := v.wrappedSchema(filename)
			if err != nil {
				return false, nil, err
			}
			defer func() {
				_ = os.Remove(wrapped)
			}()
			placeholders["schema"] = filepath.ToSlash(wrapped)
		}
		valid, xsdErrors, err := v.runXSD(ctx, placeholders)
		if err != nil {
			return false, nil, err
		}
		report.XSDValid = valid
		report.XSDErrors = xsdErrors
	}
	if v.rules != nil {
		failures, err := v.runRules(ctx, placeholders)
		if err != nil {
			return false, nil, err
		}
		report.RulesValid = len(failures) == 0
		report.RuleFailures = failures
	}
	v.logger.Debug().Msgf("validated '%s': xsd %v, rules %v", filename, report.XSDValid, report.RulesValid)
	return report.Valid(), report, nil
}

func (v *CommandValidator) wrappedSchema(filename string) (string, error) {
	xsd, err := os.ReadFile(v.schemaFile)
	if err != nil {
		return "", errors.Wrapf(err, "cannot read schema '%s'", v.schemaFile)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(filename); err != nil {
		return "", errors.Wrapf(err, "cannot parse '%s'", filename)
	}
	if doc.Root() == nil {
		return "", errors.Errorf("'%s' is empty", filename)
	}
	data, err := WrapSchema(xsd, doc.Root())
	if err != nil {
		return "", err
	}
	tmpFile, err := os.CreateTemp(os.TempDir(), "metsrw_*.xsd")
	if err != nil {
		return "", errors.Wrap(err, "cannot create temp file")
	}
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return "", errors.Wrapf(err, "cannot write '%s'", tmpFile.Name())
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpFile.Name())
		return "", errors.Wrapf(err, "cannot close '%s'", tmpFile.Name())
	}
	return tmpFile.Name(), nil
}

func (v *CommandValidator) runXSD(ctx context.Context, placeholders map[string]string) (bool, []XSDError, error) {
	args := v.xsd.expand(placeholders)
	cmd := exec.CommandContext(ctx, v.xsd.name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	v.logger.Debug().Msgf("running '%s %s'", v.xsd.name, strings.Join(args, " "))
	err := cmd.Run()
	if err == nil {
		return true, nil, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false, nil, errors.Wrapf(err, "cannot run command '%s %s'", v.xsd.name, strings.Join(args, " "))
	}
	output := stderr.String() + stdout.String()
	xsdErrors := ParseXSDLog(output)
	if len(xsdErrors) == 0 {
		xsdErrors = []XSDError{{Message: strings.TrimSpace(output)}}
	}
	return false, xsdErrors, nil
}

func (v *CommandValidator) runRules(ctx context.Context, placeholders map[string]string) ([]RuleFailure, error) {
	args := v.rules.expand(placeholders)
	cmd := exec.CommandContext(ctx, v.rules.name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	v.logger.Debug().Msgf("running '%s %s'", v.rules.name, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "cannot run command '%s %s': %s", v.rules.name, strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}
	failures, err := ParseSVRL(stdout.Bytes())
	if err != nil {
		return nil, errors.Wrapf(err, "invalid output of '%s'", v.rules.name)
	}
	return failures, nil
}
