package core

import (
	"os"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	crashMu      sync.RWMutex
	crashHandler func(r any)
	crashLogger  logrus.FieldLogger = logrus.StandardLogger()
)

// SetCrashHandler installs a hook that runs before the default report (terminal restore etc.)
func SetCrashHandler(fn func(r any)) {
	crashMu.Lock()
	defer crashMu.Unlock()
	crashHandler = fn
}

// SetCrashLogger routes crash reports to the given logger
func SetCrashLogger(l logrus.FieldLogger) {
	if l == nil {
		return
	}
	crashMu.Lock()
	defer crashMu.Unlock()
	crashLogger = l
}

// HandleCrash is the unified panic handler: runs the installed hook, logs the stack and exits
func HandleCrash(r any) {
	if r == nil {
		return
	}

	crashMu.RLock()
	hook := crashHandler
	logger := crashLogger
	crashMu.RUnlock()

	if hook != nil {
		hook(r)
	}

	logger.WithFields(logrus.Fields{
		"panic": r,
		"stack": string(debug.Stack()),
	}).Error("crash detected")

	os.Exit(1)
}

// Go runs a function in a new goroutine with panic recovery.
// Use this instead of the 'go' keyword for long-lived engine goroutines.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
