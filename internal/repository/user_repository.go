package repository

import (
	"campus_spirit_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// FindOrCreate 按 SpiritID 查找用户，不存在时创建（首次积分时惰性建档）
func (r *UserRepository) FindOrCreate(tx *gorm.DB, spiritID string) (*model.User, error) {
	db := tx
	if db == nil {
		db = r.DB
	}

	user := model.User{SpiritID: spiritID, LastActiveAt: time.Now()}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "spirit_id"}},
		DoNothing: true,
	}).Create(&user).Error
	if err != nil {
		return nil, err
	}

	// 冲突时 Create 不回填主键，统一回查一次
	var result model.User
	if err := db.Where("spirit_id = ?", spiritID).First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *UserRepository) FindBySpiritID(spiritID string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("spirit_id = ?", spiritID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ApplyCredit 在事务内累加积分缓存与对应的行为计数器
func (r *UserRepository) ApplyCredit(tx *gorm.DB, userID uint, delta int, counter string) error {
	updates := map[string]interface{}{
		"points":         gorm.Expr("points + ?", delta),
		"last_active_at": time.Now(),
	}
	if counter != "" {
		updates[counter] = gorm.Expr(counter+" + ?", 1)
	}
	return tx.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
}

// FindTopByPoints 排行榜查询：积分降序，平分按活跃时间早者在前，再按 SpiritID 升序
func (r *UserRepository) FindTopByPoints(limit int) ([]model.User, error) {
	var users []model.User
	err := r.DB.Order("points DESC, last_active_at ASC, spirit_id ASC").Limit(limit).Find(&users).Error
	return users, err
}

func (r *UserRepository) CountAll() (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Count(&count).Error
	return count, err
}

// CountWithMorePoints 用于名次计算：严格大于该积分的用户数
func (r *UserRepository) CountWithMorePoints(points int) (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("points > ?", points).Count(&count).Error
	return count, err
}
