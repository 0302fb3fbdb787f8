package model

import "encoding/json"

// KnowledgeChunk 校园知识条目，插入后不可变，更新即新插入
// Embedding 以 JSON 字符串落库，维度全库一致
// swagger:model KnowledgeChunk
type KnowledgeChunk struct {
	UUIDBase
	Content   string `gorm:"type:text;not null" json:"content"`
	Source    string `gorm:"size:255" json:"source"`
	Category  string `gorm:"size:64;index" json:"category"`
	Embedding string `gorm:"type:text" json:"-"`
}

func (KnowledgeChunk) TableName() string {
	return "knowledge_chunks"
}

// Vector 解码向量，空串返回 nil
func (c *KnowledgeChunk) Vector() ([]float64, error) {
	if c.Embedding == "" {
		return nil, nil
	}
	var v []float64
	if err := json.Unmarshal([]byte(c.Embedding), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// EncodeVector 编码向量为落库格式
func EncodeVector(v []float64) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
