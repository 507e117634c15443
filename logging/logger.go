package logging

import (
	"io"

	"github.com/mattn/go-colorable"
	"github.com/orandin/lumberjackrus"
	"github.com/sirupsen/logrus"
)

const DefaultFile = "ndfcctl.log"

type Options struct {
	Verbose bool
	// File receives Info and above as JSON; empty disables the file log.
	File string
	// Output overrides the colored stdout writer.
	Output io.Writer
}

func New(opts Options) (*logrus.Logger, error) {
	logger := logrus.New()
	if opts.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	logger.SetFormatter(&logrus.TextFormatter{ForceColors: opts.Output == nil})
	if opts.Output != nil {
		logger.SetOutput(opts.Output)
	} else {
		logger.SetOutput(colorable.NewColorableStdout())
	}
	if opts.File == "" {
		return logger, nil
	}
	hook, err := lumberjackrus.NewHook(
		&lumberjackrus.LogFile{
			Filename:   opts.File,
			MaxSize:    100,
			MaxBackups: 1,
			MaxAge:     1,
			Compress:   true,
		},
		logrus.InfoLevel,
		&logrus.JSONFormatter{},
		&lumberjackrus.LogFileOpts{},
	)
	if err != nil {
		return nil, err
	}
	logger.AddHook(hook)
	return logger, nil
}
