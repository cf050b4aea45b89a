package config

import (
	_ "embed"
	"strings"

	"emperror.dev/errors"
	"github.com/BurntSushi/toml"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/checksum"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/premis"
	configutil "github.com/je4/utils/v2/pkg/config"
	"golang.org/x/exp/slices"
)

//go:embed default.toml
var DefaultConfig []byte

var InspectFormats = []string{"json", "yaml"}

var LogLevels = []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL", "PANIC"}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type CreateConfig struct {
	Use            string                     `toml:"use"`
	Digest         checksum.DigestAlgorithm   `toml:"digest"`
	Fixity         []checksum.DigestAlgorithm `toml:"fixity"`
	PremisVersion  string                     `toml:"premisversion"`
	ObjID          string                     `toml:"objid"`
	Originator     string                     `toml:"originator"`
	FullyQualified bool                       `toml:"fullyqualified"`
}

type InspectConfig struct {
	Format string `toml:"format"`
}

type ValidateConfig struct {
	XSDCommand  string               `toml:"xsdcommand"`
	RuleCommand string               `toml:"rulecommand"`
	Schema      configutil.EnvString `toml:"schema"`
	Rules       configutil.EnvString `toml:"rules"`
	WrapSchema  bool                 `toml:"wrapschema"`
	Timeout     configutil.Duration  `toml:"timeout"`
}

type METSConfig struct {
	Log      LogConfig       `toml:"Log"`
	Create   *CreateConfig   `toml:"Create"`
	Inspect  *InspectConfig  `toml:"Inspect"`
	Validate *ValidateConfig `toml:"Validate"`
}

// LoadMETSConfig decodes data over the defaults and checks the values.
func LoadMETSConfig(data string) (*METSConfig, error) {
	var conf = &METSConfig{
		Log: LogConfig{
			Level: "ERROR",
		},
		Create: &CreateConfig{
			Use:            "original",
			Digest:         checksum.DigestSHA256,
			Fixity:         []checksum.DigestAlgorithm{},
			PremisVersion:  premis.DefaultVersion,
			FullyQualified: true,
		},
		Inspect: &InspectConfig{
			Format: "json",
		},
		Validate: &ValidateConfig{},
	}
	if _, err := toml.Decode(data, conf); err != nil {
		return nil, errors.Wrap(err, "Error on loading config")
	}
	if err := conf.Check(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Check normalizes and validates the values, e.g. after command line
// overrides.
func (conf *METSConfig) Check() error {
	conf.Log.Level = strings.ToUpper(conf.Log.Level)
	if !slices.Contains(LogLevels, conf.Log.Level) {
		return errors.Errorf("unknown log level '%s' please use %v", conf.Log.Level, LogLevels)
	}
	digest, err := checksum.ParseDigestAlgorithm(string(conf.Create.Digest))
	if err != nil {
		return errors.Wrap(err, "invalid Create.digest")
	}
	if _, ok := checksum.METSChecksumType(digest); !ok {
		return errors.Errorf("digest '%s' has no METS checksum type", digest)
	}
	conf.Create.Digest = digest
	for i, fixity := range conf.Create.Fixity {
		alg, err := checksum.ParseDigestAlgorithm(string(fixity))
		if err != nil {
			return errors.Wrap(err, "invalid Create.fixity")
		}
		conf.Create.Fixity[i] = alg
	}
	if !slices.Contains(premis.Versions(), conf.Create.PremisVersion) {
		return errors.Errorf("unknown premis version '%s' please use %v", conf.Create.PremisVersion, premis.Versions())
	}
	conf.Inspect.Format = strings.ToLower(conf.Inspect.Format)
	if !slices.Contains(InspectFormats, conf.Inspect.Format) {
		return errors.Errorf("unknown format '%s' please use %v", conf.Inspect.Format, InspectFormats)
	}
	return nil
}

// Digests returns the main digest followed by the additional fixity
// algorithms.
func (c *CreateConfig) Digests() []checksum.DigestAlgorithm {
	result := []checksum.DigestAlgorithm{c.Digest}
	for _, alg := range c.Fixity {
		if !slices.Contains(result, alg) {
			result = append(result, alg)
		}
	}
	return result
}
