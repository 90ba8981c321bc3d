package app

import (
	"fmt"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"go.uber.org/zap"
)

// Run initializes configuration, logging and the session service, then
// starts the desktop UI.
func Run() error {
	cfg, err := LoadConfig("")
	if err != nil {
		return err
	}
	ensureDirs(cfg.AnnotationsDir)

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	svc := NewService(cfg, sugar)

	a := fyneapp.NewWithID(fyneAppID)
	u := buildUI(a, svc)

	if watcher, err := watchAnnotations(cfg.AnnotationsDir, cfg.FileExt, sugar, func() {
		fyne.Do(u.refreshFiles)
	}); err != nil {
		sugar.Warnw("annotations directory watch disabled", "error", err)
	} else {
		defer watcher.Close()
	}

	u.w.ShowAndRun()
	return nil
}

func newLogger(cfg Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Debug {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.OutputPaths = []string{"stderr"}
	if cfg.LogPath != "" {
		zcfg.OutputPaths = append(zcfg.OutputPaths, cfg.LogPath)
	}
	return zcfg.Build()
}
