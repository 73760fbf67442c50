package logger

import (
	"go.uber.org/zap"
)

// Log defaults to a nop logger so packages can log before Init runs (and
// under test). Init swaps in the real production logger.
var Log = zap.NewNop().Sugar()

func Init() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}
