package hashengine

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
)

var globalVerboseLevel atomic.Int32

var (
	debugMu    sync.RWMutex
	debugFlags map[string]bool
)

// logMu serialises writes so lines from concurrent workers never interleave
var (
	logMu     sync.Mutex
	logWriter io.Writer = os.Stderr
)

// SetVerboseLevel sets the global verbose level
func SetVerboseLevel(level int) {
	globalVerboseLevel.Store(int32(level))
}

// GetVerboseLevel returns the current verbose level
func GetVerboseLevel() int {
	return int(globalVerboseLevel.Load())
}

// SetLogWriter redirects verbose, warning and error output. A nil writer restores stderr.
func SetLogWriter(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	logWriter = w
}

func writeLog(prefix, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	logMu.Lock()
	defer logMu.Unlock()
	fmt.Fprint(logWriter, prefix+msg)
}

// VerboseEnter logs function entry at level 3+ and returns a defer function for exit logging
func VerboseEnter() func() {
	if GetVerboseLevel() < 3 {
		return func() {}
	}

	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return func() {}
	}

	funcName := runtime.FuncForPC(pc).Name()
	if idx := strings.LastIndex(funcName, "."); idx != -1 {
		funcName = funcName[idx+1:]
	}

	writeLog("[TRACE] ", "Entering function: %s", funcName)

	return func() {
		writeLog("[TRACE] ", "Exiting function: %s", funcName)
	}
}

// VerboseLog logs a message at the specified verbose level
func VerboseLog(level int, format string, args ...interface{}) {
	if GetVerboseLevel() >= level {
		writeLog(fmt.Sprintf("[VERBOSE-%d] ", level), format, args...)
	}
}

// debugLog logs when the named debug flag is enabled, regardless of verbose level
func debugLog(flag, format string, args ...interface{}) {
	if IsDebugEnabled(flag) {
		writeLog("["+strings.ToUpper(flag)+"] ", format, args...)
	}
}

// logWarn always logs; used for non-fatal conditions the caller cannot see through a Code
func logWarn(format string, args ...interface{}) {
	writeLog("[WARN] ", format, args...)
}

func logError(format string, args ...interface{}) {
	writeLog("[ERROR] ", format, args...)
}

// SetDebugFlags sets the debug flags from a comma-separated string
// Supports both simple flags ("walk,worker") and key:value format ("walk:true,worker:false")
func SetDebugFlags(flagsStr string) {
	flags := make(map[string]bool)
	defer func() {
		debugMu.Lock()
		debugFlags = flags
		debugMu.Unlock()
	}()

	if flagsStr == "" {
		return
	}

	for _, flag := range strings.Split(flagsStr, ",") {
		flag = strings.TrimSpace(flag)
		if flag == "" {
			continue
		}

		parts := strings.SplitN(flag, ":", 2)
		flagName := strings.ToLower(parts[0])
		flagValue := true

		if len(parts) > 1 {
			switch strings.ToLower(parts[1]) {
			case "true", "1", "yes", "on":
				flagValue = true
			case "false", "0", "no", "off":
				flagValue = false
			default:
				flagValue = true
			}
		}

		flags[flagName] = flagValue
	}
}

// IsDebugEnabled returns true if the specified debug flag is enabled
func IsDebugEnabled(flag string) bool {
	debugMu.RLock()
	defer debugMu.RUnlock()
	if debugFlags == nil {
		return false
	}
	return debugFlags[strings.ToLower(flag)]
}
