package repository

import (
	"campus_spirit_backend/internal/model"

	"gorm.io/gorm"
)

type PointTransactionRepository struct {
	DB *gorm.DB
}

func NewPointTransactionRepository(db *gorm.DB) *PointTransactionRepository {
	return &PointTransactionRepository{DB: db}
}

// Append 追加一条流水，必须在调用方的事务内执行
func (r *PointTransactionRepository) Append(tx *gorm.DB, t *model.PointTransaction) error {
	return tx.Create(t).Error
}

func (r *PointTransactionRepository) FindByUser(userID uint, limit int) ([]model.PointTransaction, error) {
	var txs []model.PointTransaction
	q := r.DB.Where("user_id = ?", userID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&txs).Error
	return txs, err
}

// SumByUser 流水合计，用于与积分缓存核对
func (r *PointTransactionRepository) SumByUser(userID uint) (int, error) {
	var sum *int
	err := r.DB.Model(&model.PointTransaction{}).
		Where("user_id = ?", userID).
		Select("SUM(delta)").
		Scan(&sum).Error
	if err != nil || sum == nil {
		return 0, err
	}
	return *sum, nil
}

// ExistsByActionAndDescription 幂等判断：该用户是否已有指定类型且描述前缀匹配的流水
func (r *PointTransactionRepository) ExistsByActionAndDescription(tx *gorm.DB, userID uint, action model.ActionKind, descPrefix string) (bool, error) {
	db := tx
	if db == nil {
		db = r.DB
	}
	var count int64
	err := db.Model(&model.PointTransaction{}).
		Where("user_id = ? AND action = ? AND description LIKE ?", userID, action, descPrefix+"%").
		Count(&count).Error
	return count > 0, err
}

func (r *PointTransactionRepository) FindByUserAndAction(userID uint, action model.ActionKind, limit int) ([]model.PointTransaction, error) {
	var txs []model.PointTransaction
	q := r.DB.Where("user_id = ? AND action = ?", userID, action).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&txs).Error
	return txs, err
}
