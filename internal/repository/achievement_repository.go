package repository

import (
	"errors"

	"edusync/internal/model"

	"gorm.io/gorm"
)

type AchievementRepository struct {
	DB *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: db}
}

// Catalog 全部成就定义
func (r *AchievementRepository) Catalog() ([]model.AchievementDefinition, error) {
	var defs []model.AchievementDefinition
	err := r.DB.Order("id").Find(&defs).Error
	if err != nil {
		return nil, err
	}
	return defs, nil
}

func (r *AchievementRepository) FindDefinition(id uint) (*model.AchievementDefinition, error) {
	var def model.AchievementDefinition
	err := r.DB.First(&def, id).Error
	if err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *AchievementRepository) UnlocksByUser(userID uint) ([]model.AchievementUnlock, error) {
	var unlocks []model.AchievementUnlock
	err := r.DB.Where("user_id = ?", userID).Find(&unlocks).Error
	if err != nil {
		return nil, err
	}
	return unlocks, nil
}

func (r *AchievementRepository) FindUnlock(tx *gorm.DB, userID, achievementID uint) (*model.AchievementUnlock, error) {
	var unlock model.AchievementUnlock
	err := tx.Where("user_id = ? AND achievement_id = ?", userID, achievementID).First(&unlock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &unlock, nil
}

func (r *AchievementRepository) CreateUnlock(unlock *model.AchievementUnlock) error {
	return r.DB.Create(unlock).Error
}

func (r *AchievementRepository) SaveUnlock(tx *gorm.DB, unlock *model.AchievementUnlock) error {
	return tx.Save(unlock).Error
}
