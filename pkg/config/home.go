package config

import (
	"os"
	"path/filepath"
	"sync"
)

const envHome = "BOOKQA_HOME"

// Layout of the bookqa home directory.
const (
	logsDirName    = "logs"
	logFileName    = "bookqa.log"
	resultsDirName = "allure-results"
	installBinDir  = "bin"
)

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the bookqa home directory. Relative results and log paths
// are resolved against it.
//
// Resolution order:
//  1. $BOOKQA_HOME
//  2. <home> when the binary is installed as <home>/bin/bookqa
//  3. the working directory, so a checkout of the suite is its own home
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome()
	})
	return homeDir
}

// GetLogsDir returns <home>/logs.
func GetLogsDir() string {
	return filepath.Join(GetHome(), logsDirName)
}

// InHome resolves p against the home directory. Absolute paths are returned
// unchanged; an empty p is the home directory itself.
func InHome(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GetHome(), p)
}

// ResultsDir resolves an Allure results directory. Empty means
// <home>/allure-results.
func ResultsDir(dir string) string {
	if dir == "" {
		dir = resultsDirName
	}
	return InHome(dir)
}

// LogFile resolves the run log path. Empty means <home>/logs/bookqa.log.
func LogFile(file string) string {
	if file == "" {
		return filepath.Join(GetLogsDir(), logFileName)
	}
	return InHome(file)
}

func resolveHome() string {
	if env := os.Getenv(envHome); env != "" {
		return env
	}

	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		if dir := filepath.Dir(exe); filepath.Base(dir) == installBinDir {
			return filepath.Dir(dir)
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}

// ResetHome forgets the cached home directory. Tests that set BOOKQA_HOME
// call it before and after.
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
