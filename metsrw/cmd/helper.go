package cmd

import (
	"io"
	"os"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/artefactual-labs/mets-reader-writer-sub000/config"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/dc"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/mets"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/premis"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

func startTimer() *timer {
	t := &timer{}
	t.Start()
	return t
}

type timer struct {
	start time.Time
}

func (t *timer) Start() {
	t.start = time.Now()
}

func (t *timer) String() string {
	return time.Since(t.start).String()
}

// createLogger builds the console or file logger of the log config. The
// returned closer is nil for console output.
func createLogger(logConf config.LogConfig) (zLogger.ZLogger, io.Closer, error) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	level, err := zerolog.ParseLevel(strings.ToLower(logConf.Level))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "invalid log level '%s'", logConf.Level)
	}
	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	var closer io.Closer
	if logConf.File != "" {
		fp, err := os.OpenFile(logConf.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "cannot open logfile '%s'", logConf.File)
		}
		output = fp
		closer = fp
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	l2 := zerolog.New(output).Level(level).With().Timestamp().Str("host", hostname).Logger()
	var logger zLogger.ZLogger = &l2
	return logger, closer, nil
}

// newFactory knows all payload decoders of this module.
func newFactory() *mets.Factory {
	return premis.NewFactory(mets.WithDecoder(mets.MDTypeDC, dc.Decode))
}

func documentOptions() []mets.DocumentOption {
	if conf.Create.FullyQualified {
		return nil
	}
	return []mets.DocumentOption{mets.WithDefaultNamespace()}
}
