package repository

import (
	"campus_spirit_backend/internal/model"

	"gorm.io/gorm"
)

type KnowledgeChunkRepository struct {
	DB *gorm.DB
}

func NewKnowledgeChunkRepository(db *gorm.DB) *KnowledgeChunkRepository {
	return &KnowledgeChunkRepository{DB: db}
}

func (r *KnowledgeChunkRepository) Create(chunk *model.KnowledgeChunk) error {
	return r.DB.Create(chunk).Error
}

// FindAll 按插入顺序返回全部条目，支撑启动时加载内存镜像
func (r *KnowledgeChunkRepository) FindAll() ([]model.KnowledgeChunk, error) {
	var chunks []model.KnowledgeChunk
	err := r.DB.Order("created_at ASC, id ASC").Find(&chunks).Error
	return chunks, err
}

// Search 内容与分类的大小写不敏感子串匹配，仅用于诊断与 UI 浏览
func (r *KnowledgeChunkRepository) Search(query string, category string) ([]model.KnowledgeChunk, error) {
	var chunks []model.KnowledgeChunk
	pattern := "%" + query + "%"
	q := r.DB.Where("LOWER(content) LIKE LOWER(?) OR LOWER(category) LIKE LOWER(?)", pattern, pattern)
	if category != "" {
		q = r.DB.Where("(LOWER(content) LIKE LOWER(?)) AND LOWER(category) = LOWER(?)", pattern, category)
	}
	err := q.Order("created_at ASC").Find(&chunks).Error
	return chunks, err
}

func (r *KnowledgeChunkRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.KnowledgeChunk{}).Count(&count).Error
	return count, err
}

func (r *KnowledgeChunkRepository) CountByCategory() (map[string]int64, error) {
	type row struct {
		Category string
		Total    int64
	}
	var rows []row
	err := r.DB.Model(&model.KnowledgeChunk{}).
		Select("category, COUNT(*) AS total").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, r := range rows {
		result[r.Category] = r.Total
	}
	return result, nil
}
