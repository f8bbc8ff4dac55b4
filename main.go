package main

import (
	"context"
	"flag"
	"log"
	"path/filepath"
	"time"

	"edusync/internal/app"
	"edusync/internal/config"
	"edusync/pkg/configwatcher"
	"edusync/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	hydrateUser := flag.Uint("hydrate-user", 0, "启动时从远端拉取该用户的进度填充本地库")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 冷启动水合：远端为准，本地在途变更优先
	if *hydrateUser != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := application.SyncEngine().Hydrate(ctx, uint(*hydrateUser)); err != nil {
			logger.Log.Warn("hydration failed, continuing with local data", zap.Error(err))
		}
		cancel()
	}

	go configwatcher.WatchConfig(filepath.Join("configs", "config.yaml"), application.ReloadConfig)

	application.Run()
}
