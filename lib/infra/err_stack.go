package infra

import (
	"errors"
	"path"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// References:
// https://github.com/pkg/errors/blob/master/stack.go

const maxStackDepth = 32

type Frame uintptr

func (frame Frame) pc() uintptr {
	return uintptr(frame) - 1
}

func (frame Frame) fileLine() (string, int) {
	fn := runtime.FuncForPC(frame.pc())
	if fn == nil {
		return "unknownFile", 0
	}
	return fn.FileLine(frame.pc())
}

func (frame Frame) name() string {
	fn := runtime.FuncForPC(frame.pc())
	if fn == nil {
		return "unknownFunc"
	}
	return fn.Name()
}

// String formats the frame as "<func> <file>:<line>".
func (frame Frame) String() string {
	name := frame.name()
	if name == "unknownFunc" {
		return "unknownFrame"
	}
	file, line := frame.fileLine()
	builder := strings.Builder{}
	_, _ = builder.WriteString(funcName(name))
	_, _ = builder.WriteString(" ")
	_, _ = builder.WriteString(path.Base(file))
	_, _ = builder.WriteString(":")
	_, _ = builder.WriteString(strconv.Itoa(line))
	return builder.String()
}

func (frame Frame) MarshalText() ([]byte, error) {
	return []byte(frame.String()), nil
}

func funcName(name string) string {
	i := strings.LastIndex(name, "/")
	name = name[i+1:]
	i = strings.Index(name, ".")
	return name[i+1:]
}

func callers(skip int) []Frame {
	var pcs [maxStackDepth]uintptr
	n := runtime.Callers(skip, pcs[:])
	frames := make([]Frame, 0, n)
	for i := 0; i < n; i++ {
		frames = append(frames, Frame(pcs[i]))
	}
	return frames
}

// ErrorStack is an error carrying the call frames where it was created.
// It implements zapcore.ObjectMarshaler, so the logger is able to inline
// the frames (and all the errors combined by multierr) as JSON fields.
type ErrorStack interface {
	error
	zapcore.ObjectMarshaler
	Unwrap() error
	Frames() []Frame
}

var _ ErrorStack = (*errorStack)(nil)

type errorStack struct {
	err    error
	msg    string
	frames []Frame
}

func (es *errorStack) Error() string {
	if es.err == nil {
		return es.msg
	}
	if len(es.msg) == 0 {
		return es.err.Error()
	}
	return es.msg + ": " + es.err.Error()
}

func (es *errorStack) Unwrap() error {
	return es.err
}

func (es *errorStack) Frames() []Frame {
	return es.frames
}

func (es *errorStack) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("error", es.Error())
	if errs := multierr.Errors(es.err); len(errs) > 1 {
		_ = enc.AddArray("errors", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
			for _, err := range errs {
				ae.AppendString(err.Error())
			}
			return nil
		}))
	}
	return enc.AddArray("errorStack", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
		for _, frame := range es.frames {
			ae.AppendString(frame.String())
		}
		return nil
	}))
}

func NewErrorStack(msg string) ErrorStack {
	return &errorStack{
		msg:    msg,
		frames: callers(3),
	}
}

func WrapErrorStack(err error) ErrorStack {
	if err == nil {
		return nil
	}
	var es ErrorStack
	if errors.As(err, &es) {
		return es
	}
	return &errorStack{
		err:    err,
		frames: callers(3),
	}
}

func WrapErrorStackWithMessage(err error, msg string) ErrorStack {
	if err == nil {
		return nil
	}
	return &errorStack{
		err:    err,
		msg:    msg,
		frames: callers(3),
	}
}
