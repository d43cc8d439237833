package logsvc

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"github.com/rs/zerolog"

	"github.com/scibridge/scibridge/core"
	"github.com/scibridge/scibridge/core/account"
)

// Logger writes structured lines with zerolog and forwards warnings and errors to Rollbar when a token is set.
type Logger struct {
	zl     zerolog.Logger
	report bool
	exit   func(code int)
}

var _ core.Logger = (*Logger)(nil)

// New returns the application logger: human-readable output in debug mode, JSON lines otherwise.
func New(conf *core.Config) *Logger {
	var w io.Writer = os.Stdout
	if conf.Debug {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	l := NewWithWriter(w, conf.LogLevel)
	l.zl = l.zl.With().Str("app", conf.AppName).Str("env", conf.Env).Logger()

	if conf.RollbarToken != "" {
		rollbar.SetToken(conf.RollbarToken)
		rollbar.SetEnvironment(conf.Env)
		rollbar.SetServerHost(conf.Server.Host)
		rollbar.SetCodeVersion(conf.Build)
		rollbar.SetStackTracer(errors.StackTracer)
		rollbar.SetEnabled(true)
		l.report = true
	}
	return l
}

// NewWithWriter returns a logger writing JSON lines to w at `level`, without error reporting.
func NewWithWriter(w io.Writer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return &Logger{
		zl:   zerolog.New(w).Level(lvl).With().Timestamp().Logger(),
		exit: os.Exit,
	}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop(), exit: func(int) {}}
}

// Close flushes pending error reports.
func (l *Logger) Close() {
	if l.report {
		rollbar.Wait()
	}
}

// expected args: error, map[string]interface{}, account.Account | account.Profile, anything else
func (l *Logger) event(e *zerolog.Event, msg string, args []interface{}) {
	for i, arg := range args {
		switch v := arg.(type) {
		case error:
			e = e.Err(v)
		case map[string]interface{}:
			e = e.Fields(v)
		case account.Account:
			e = e.Str("account_id", v.ID).Str("account_role", v.Role.String())
		case account.Profile:
			e = e.Str("account_id", v.ID).Str("account_role", v.Role.String())
		default:
			e = e.Interface(fmt.Sprintf("arg%d", i), v)
		}
	}
	e.Msg(msg)
}

// reportPerson returns the Rollbar person for the first account in args, if any.
func reportPerson(args []interface{}) *rollbar.Person {
	for _, arg := range args {
		switch v := arg.(type) {
		case account.Account:
			return &rollbar.Person{Id: v.ID, Username: v.Name, Email: v.Email}
		case account.Profile:
			return &rollbar.Person{Id: v.ID, Username: v.Name, Email: v.Email}
		}
	}
	return nil
}

// prepare builds the Rollbar payload. The person travels in a context owned by this report,
// so concurrent reports never share it.
func (l *Logger) prepare(msg string, args []interface{}) []interface{} {
	newArgs := make([]interface{}, 0, len(args)+2)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		switch arg.(type) {
		case account.Account, account.Profile:
			continue
		}
		newArgs = append(newArgs, arg)
	}
	if person := reportPerson(args); person != nil {
		newArgs = append(newArgs, rollbar.NewPersonContext(context.Background(), person))
	}
	return newArgs
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.event(l.zl.Debug(), msg, args)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.event(l.zl.Info(), msg, args)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.report {
		rollbar.Warning(l.prepare(msg, args)...)
	}
	l.event(l.zl.Warn(), msg, args)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	if l.report {
		rollbar.Error(l.prepare(msg, args)...)
	}
	l.event(l.zl.Error(), msg, args)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	if l.report {
		rollbar.Critical(l.prepare(msg, args)...)
		rollbar.Wait()
	}
	l.event(l.zl.WithLevel(zerolog.FatalLevel), msg, args)
	l.exit(1)
}
