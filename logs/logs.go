package logs

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/cube2222/udtf/config"
)

var Output *os.File

func InitializeFileLogger() {
	path := filepath.Join(config.CacheDir, "logs.txt")
	if err := os.MkdirAll(config.CacheDir, 0755); err != nil {
		log.Fatalf("couldn't create ~/.udtf home directory: %s", err)
	}
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("couldn't create logs file: %s", err)
	}
	Output = f
	log.SetOutput(Output)
}

// EnableStderr additionally sends logs to stderr.
func EnableStderr() {
	if Output == nil {
		log.SetOutput(os.Stderr)
		return
	}
	log.SetOutput(io.MultiWriter(Output, os.Stderr))
}

func CloseLogger() {
	if Output != nil {
		Output.Close()
	}
}
