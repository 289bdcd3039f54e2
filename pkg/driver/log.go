package driver

import "go.uber.org/zap"

// NewLogger builds the *zap.Logger threaded into pkg/bsdiff and
// pkg/bspatch calls. quiet selects zap.NewNop(), matching the teacher's
// silence; otherwise a production logger is built.
func NewLogger(quiet bool) (*zap.Logger, error) {
	if quiet {
		return zap.NewNop(), nil
	}
	return zap.NewProduction()
}
