package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	fyneAppID         = "studio.yashubu.annotator"
	defaultConfigFile = "config.json"
)

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	AnnotationsDir string `json:"annotationsDir"`
	FileExt        string `json:"fileExt"`
	PageSize       int    `json:"pageSize"`
	ImagesPerRow   int    `json:"imagesPerRow"`
	ThumbWidth     int    `json:"thumbWidth"`
	CacheTTLSec    int    `json:"cacheTtlSec"`
	LogPath        string `json:"logPath"`
	Debug          bool   `json:"debug"`
}

func defaultConfig() Config {
	return Config{
		AnnotationsDir: "annotations",
		FileExt:        ".json",
		PageSize:       10,
		ImagesPerRow:   3,
		ThumbWidth:     250,
		CacheTTLSec:    300,
		LogPath:        "",
		Debug:          false,
	}
}

func sanitizeConfig(cfg Config) Config {
	def := defaultConfig()
	cfg.AnnotationsDir = strings.TrimSpace(cfg.AnnotationsDir)
	if cfg.AnnotationsDir == "" {
		cfg.AnnotationsDir = def.AnnotationsDir
	}
	cfg.FileExt = strings.TrimSpace(cfg.FileExt)
	if cfg.FileExt == "" {
		cfg.FileExt = def.FileExt
	}
	if !strings.HasPrefix(cfg.FileExt, ".") {
		cfg.FileExt = "." + cfg.FileExt
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = def.PageSize
	}
	if cfg.PageSize > 50 {
		cfg.PageSize = 50
	}
	if cfg.ImagesPerRow < 1 {
		cfg.ImagesPerRow = def.ImagesPerRow
	}
	if cfg.ImagesPerRow > 6 {
		cfg.ImagesPerRow = 6
	}
	if cfg.ThumbWidth < 80 {
		cfg.ThumbWidth = def.ThumbWidth
	}
	if cfg.CacheTTLSec <= 0 {
		cfg.CacheTTLSec = def.CacheTTLSec
	}
	return cfg
}

// LoadConfig loads configuration from the given path or the default
// config.json. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return sanitizeConfig(cfg), nil
}

// SaveConfig persists configuration to disk via temp file and rename.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(sanitizeConfig(cfg), "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

func ensureDirs(dirs ...string) {
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		_ = os.MkdirAll(dir, 0o755)
	}
}
