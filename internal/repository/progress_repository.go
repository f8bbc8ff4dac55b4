package repository

import (
	"errors"

	"edusync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressRepository 本地进度存储。写入同步完成后变更才算"已本地生效"，
// 底层存储不可用时直接报错，绝不吞掉。
type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// Get 按复合键取当前记录，不存在时返回 (nil, nil)
func (r *ProgressRepository) Get(key model.ProgressKey) (*model.ModuleProgressRecord, error) {
	var rec model.ModuleProgressRecord
	err := r.DB.Where(
		"user_id = ? AND module_id = ? AND module_type = ? AND course_id = ?",
		key.UserID, key.ModuleID, key.ModuleType, key.CourseID,
	).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Upsert 按复合键整体覆盖，重复执行结果一致
func (r *ProgressRepository) Upsert(rec *model.ModuleProgressRecord) error {
	if rec.ID != 0 {
		return r.DB.Save(rec).Error
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "module_id"}, {Name: "module_type"}, {Name: "course_id"},
		},
		UpdateAll: true,
	}).Create(rec).Error
}

func (r *ProgressRepository) ListByCourse(userID, courseID uint) ([]model.ModuleProgressRecord, error) {
	var records []model.ModuleProgressRecord
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *ProgressRepository) ListByUser(userID uint) ([]model.ModuleProgressRecord, error) {
	var records []model.ModuleProgressRecord
	err := r.DB.Where("user_id = ?", userID).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *ProgressRepository) CountCompleted(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ModuleProgressRecord{}).
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Count(&count).Error
	return count, err
}
