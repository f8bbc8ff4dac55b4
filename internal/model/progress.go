package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type ModuleType string

const (
	ModuleLesson     ModuleType = "lesson"
	ModuleVideo      ModuleType = "video"
	ModuleQuiz       ModuleType = "quiz"
	ModuleAssignment ModuleType = "assignment"
)

// ProgressKey 进度记录的复合主键：同一用户在同一课程下的某个模块唯一对应一条记录
type ProgressKey struct {
	UserID     uint       `json:"userId"`
	ModuleID   uint       `json:"moduleId"`
	ModuleType ModuleType `json:"moduleType"`
	CourseID   uint       `json:"courseId"`
}

// ModuleProgressRecord 记录用户在单个学习模块内的进度
//
// CompletedAt 与 ProgressPercentage==100 同时成立，且一旦写入不再变化。
type ModuleProgressRecord struct {
	BaseModel
	UserID             uint              `gorm:"uniqueIndex:idx_progress_key;type:bigint unsigned;not null" json:"userId"`
	ModuleID           uint              `gorm:"uniqueIndex:idx_progress_key;type:bigint unsigned;not null" json:"moduleId"`
	ModuleType         ModuleType        `gorm:"uniqueIndex:idx_progress_key;size:32;not null" json:"moduleType"`
	CourseID           uint              `gorm:"uniqueIndex:idx_progress_key;index;type:bigint unsigned;not null" json:"courseId"`
	ProgressPercentage int               `gorm:"default:0" json:"progressPercentage"`
	TimeSpentMinutes   int               `gorm:"default:0" json:"timeSpentMinutes"`
	LastAccessed       time.Time         `json:"lastAccessed"`
	CompletedAt        *time.Time        `json:"completedAt,omitempty"`
	DetailedProgress   datatypes.JSONMap `json:"detailedProgress,omitempty"`
}

func (ModuleProgressRecord) TableName() string {
	return "module_progress_records"
}

func (r *ModuleProgressRecord) Key() ProgressKey {
	return ProgressKey{
		UserID:     r.UserID,
		ModuleID:   r.ModuleID,
		ModuleType: r.ModuleType,
		CourseID:   r.CourseID,
	}
}

func (r *ModuleProgressRecord) Completed() bool {
	return r.CompletedAt != nil
}

// detailedProgress 是存储层面的无模式 map；下面的访问器声明各消费方
// 期望的子结构，读取时做类型校验而不是在各处直接信任任意键。
const (
	detailCompletedLessons = "completedLessons"
	detailQuizScores       = "quizScores"
	detailAssignments      = "assignments"
	detailXPEarned         = "xpEarned"
	detailAchievements     = "unlockedAchievements"
)

// CompletedLessons 模块内已完成课时的标识列表
func (r *ModuleProgressRecord) CompletedLessons() []string {
	raw, ok := r.DetailedProgress[detailCompletedLessons].([]interface{})
	if !ok {
		return nil
	}
	lessons := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			lessons = append(lessons, s)
		}
	}
	return lessons
}

// detailNumber 统一数值读取。内存中的值是 float64/int，从存储重载后
// JSONMap 解码成 json.Number，两种形态都要认。
func detailNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// QuizScores 模块内各测验的得分，按测验 ID 索引
func (r *ModuleProgressRecord) QuizScores() map[string]float64 {
	raw, ok := r.DetailedProgress[detailQuizScores].(map[string]interface{})
	if !ok {
		return nil
	}
	scores := make(map[string]float64, len(raw))
	for id, v := range raw {
		if n, ok := detailNumber(v); ok {
			scores[id] = n
		}
	}
	return scores
}

// XPEarned 模块内累计获得的经验值
func (r *ModuleProgressRecord) XPEarned() int {
	if n, ok := detailNumber(r.DetailedProgress[detailXPEarned]); ok {
		return int(n)
	}
	return 0
}

func (r *ModuleProgressRecord) ensureDetail() {
	if r.DetailedProgress == nil {
		r.DetailedProgress = datatypes.JSONMap{}
	}
}

// AddCompletedLessons 合并课时完成集合(去重并保序)
func (r *ModuleProgressRecord) AddCompletedLessons(lessons []string) {
	if len(lessons) == 0 {
		return
	}
	r.ensureDetail()
	existing := r.CompletedLessons()
	seen := make(map[string]bool, len(existing))
	merged := make([]interface{}, 0, len(existing)+len(lessons))
	for _, l := range existing {
		seen[l] = true
		merged = append(merged, l)
	}
	for _, l := range lessons {
		if !seen[l] {
			seen[l] = true
			merged = append(merged, l)
		}
	}
	r.DetailedProgress[detailCompletedLessons] = merged
}

// RecordQuizScores 写入测验成绩，同一测验保留最高分
func (r *ModuleProgressRecord) RecordQuizScores(scores map[string]float64) {
	if len(scores) == 0 {
		return
	}
	r.ensureDetail()
	current, ok := r.DetailedProgress[detailQuizScores].(map[string]interface{})
	if !ok {
		current = map[string]interface{}{}
	}
	for id, score := range scores {
		if prev, ok := detailNumber(current[id]); !ok || score > prev {
			current[id] = score
		}
	}
	r.DetailedProgress[detailQuizScores] = current
}

// AddXP 累加模块内经验值
func (r *ModuleProgressRecord) AddXP(xp int) {
	if xp <= 0 {
		return
	}
	r.ensureDetail()
	r.DetailedProgress[detailXPEarned] = float64(r.XPEarned() + xp)
}

// MergeAssignmentData 自由格式的作业数据，按键整体覆盖
func (r *ModuleProgressRecord) MergeAssignmentData(data map[string]interface{}) {
	if len(data) == 0 {
		return
	}
	r.ensureDetail()
	current, ok := r.DetailedProgress[detailAssignments].(map[string]interface{})
	if !ok {
		current = map[string]interface{}{}
	}
	for k, v := range data {
		current[k] = v
	}
	r.DetailedProgress[detailAssignments] = current
}
