package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// applyEnvOverrides 应用环境变量覆盖，字段通过 `env:"KEY"` 标签声明
func applyEnvOverrides(v interface{}, prefix string) error {
	return env.ParseWithOptions(v, env.Options{Prefix: prefix})
}

// loadDotEnv 依次加载 .env 文件
func loadDotEnv(files []string) error {
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load %s failed: %w", file, err)
		}
	}
	return nil
}
