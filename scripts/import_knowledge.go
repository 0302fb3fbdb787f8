// 手动批量导入校园知识脚本
//
// 主应用提供 /api/knowledge/import 接口做在线导入，
// 此脚本用于首次部署或离线灌库，直接写本地数据库。
//
// 用法: go run scripts/import_knowledge.go -file campus_knowledge.yaml

package main

import (
	"campus_spirit_backend/internal/config"
	"campus_spirit_backend/internal/repository"
	"campus_spirit_backend/internal/service"
	"campus_spirit_backend/pkg/database"
	"campus_spirit_backend/pkg/logger"
	"flag"
	"log"
)

func main() {
	file := flag.String("file", "campus_knowledge.yaml", "YAML 知识文件路径")
	configDir := flag.String("config", "configs", "配置文件目录")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}

	logger.InitLogger(cfg.Server.Mode, cfg.Logs.Dir)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	embedding := service.NewEmbeddingService(cfg.AI)
	if !embedding.Available() {
		log.Fatal("向量化模型不可用，导入前请先启动模型服务")
	}

	repo := repository.NewKnowledgeChunkRepository(db)
	knowledge, err := service.NewKnowledgeService(repo, embedding, cfg.Retrieval.MaxResults, cfg.Retrieval.MinSimilarity)
	if err != nil {
		log.Fatalf("知识库初始化失败: %v", err)
	}

	log.Printf("开始导入 %s ...", *file)
	imported, err := knowledge.ImportFile(*file)
	if err != nil {
		log.Fatalf("导入失败: %v", err)
	}
	log.Printf("完成！共导入 %d 条", imported)
}
