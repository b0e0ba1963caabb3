package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type JudgeConfig struct {
	WorkDir       string
	ExecTimeout   time.Duration
	WorkerCount   int
	QueueCapacity int
}

func NewJudgeConfig() *JudgeConfig {
	workDir := os.Getenv("JUDGE_WORKDIR")
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "code-engine")
	}
	timeoutSec, err := strconv.Atoi(os.Getenv("EXEC_TIMEOUT_SEC"))
	if err != nil {
		timeoutSec = 5
	}
	workers, err := strconv.Atoi(os.Getenv("JUDGE_WORKERS"))
	if err != nil {
		workers = 4
	}
	capacity, err := strconv.Atoi(os.Getenv("JUDGE_QUEUE_CAPACITY"))
	if err != nil {
		capacity = 2 * workers
	}
	return &JudgeConfig{
		WorkDir:       workDir,
		ExecTimeout:   time.Duration(timeoutSec) * time.Second,
		WorkerCount:   workers,
		QueueCapacity: capacity,
	}
}
