// Package logging constructs the engine-wide structured logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logger. format is "json" or anything else for text (the
// teacher's own log output is plain text with bracketed prefixes; JSON mode
// exists for production log aggregation).
func New(format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := logrus.ParseLevel(lvl); err == nil {
			log.SetLevel(parsed)
		}
	}

	return log
}
