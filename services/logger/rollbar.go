package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/user"
)

// RollbarLogger ships events to Rollbar and mirrors them on a standard
// logger so they also land in the process output.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.report(rollbar.Debug, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.report(rollbar.Info, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.report(rollbar.Warning, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.report(rollbar.Error, msg, args) }
func (l RollbarLogger) Critical(msg string, args ...interface{}) {
	l.report(rollbar.Critical, msg, args)
}

// report forwards msg and args to the given rollbar level. A user.User
// among the args is stripped out and attached as the rollbar person; only
// the first one is honored.
func (l RollbarLogger) report(level func(...interface{}), msg string, args []interface{}) {
	fwd := make([]interface{}, 0, len(args)+1)
	fwd = append(fwd, msg)

	var usrSet bool
	for _, arg := range args {
		if usr, ok := arg.(user.User); ok {
			if !usrSet {
				rollbar.SetPerson(usr.ID, usr.Username, usr.Email)
				usrSet = true
			}
			continue
		}
		fwd = append(fwd, arg)
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	level(fwd...)

	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}
