// @title Campus Spirit 后端 API
// @version 1.0
// @description Riverton State 校园助力应用的问答与积分后端。

// @host localhost:8080
// @BasePath /api

package main

import (
	"campus_spirit_backend/internal/app"
	"campus_spirit_backend/internal/config"
	"campus_spirit_backend/pkg/configwatcher"
	"campus_spirit_backend/pkg/logger"
	"flag"
	"log"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	watch := flag.Bool("watch-config", false, "监听配置文件变更并热更新可调参数")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *watch {
		go configwatcher.WatchConfig(*configDir+"/config.yaml", application.ReloadConfig)
	}

	application.Run()
}
