package utils

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// RootEnv overrides the directory config files and logs are resolved against.
const RootEnv = "ONMYDESK_ROOT"

func GetProjectRoot() string {
	if env := os.Getenv(RootEnv); env != "" {
		return env
	}
	executable, err := os.Executable()
	if err != nil {
		log.Fatalf("Failed to get executable: %v", err)
	}
	dir := filepath.Dir(executable)
	return filepath.Clean(filepath.Join(dir, ".."))
}

// ResolvePath keeps absolute paths as is and joins relative ones to the project root.
func ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GetProjectRoot(), p)
}

func EnsureDirExists(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// LogToFile redirige le package log standard vers <root>/log/<filename>,
// en archivant le fichier précédent s'il existe.
func LogToFile(filename string) *os.File {
	logDir := filepath.Join(GetProjectRoot(), "log")
	EnsureDirExists(logDir)
	logFileName := filepath.Join(logDir, filename)
	_, err := os.Stat(logFileName)
	// if log file exist, move it to archive and rename
	if err == nil {
		EnsureDirExists(filepath.Join(logDir, "archives"))
		os.Rename(logFileName, filepath.Join(logDir, "archives", filename+"."+time.Now().Format("2006-01-02-15-04-05")))
	}

	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	if err != nil {
		panic(err)
	}
	log.SetOutput(io.MultiWriter(logFile, os.Stderr))
	return logFile
}
