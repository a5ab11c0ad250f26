package xlog

import (
	"go.uber.org/zap/zapcore"
)

// newConsoleCore writes the records to one of the registered writers.
// Zap stack traces are disabled, ErrorStack inlines its own frames.
func newConsoleCore(
	lvl zapcore.LevelEnabler,
	enc LogEncoderType,
	out LogOutWriterType,
	lvlEnc zapcore.LevelEncoder,
	tsEnc zapcore.TimeEncoder,
) zapcore.Core {
	encoder := getEncoderByType(enc)(zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "lvl",
		CallerKey:      "callAt",
		MessageKey:     "msg",
		NameKey:        coreKeyIgnored,
		FunctionKey:    coreKeyIgnored,
		StacktraceKey:  coreKeyIgnored,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     tsEnc,
		EncodeLevel:    lvlEnc,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	return zapcore.NewCore(encoder, getOutWriterByType(out), lvl)
}
