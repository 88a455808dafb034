package logging

import (
	"log"

	"go.uber.org/zap"
)

// NewLogger provides a new logger; debug switches to the human-readable
// development config.
func NewLogger(debug bool) *zap.SugaredLogger {
	var l *zap.Logger
	var err error

	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		// Just blow up for now
		log.Fatalf("error creating logger: %s", err)
	}

	return l.Sugar()
}
