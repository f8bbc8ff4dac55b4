package model

import "time"

// CourseProgressSummary 课程级进度汇总，由模块记录推导得出，不单独落库
type CourseProgressSummary struct {
	CourseID          uint      `json:"courseId"`
	OverallProgress   int       `json:"overallProgress"`
	CompletedModules  int       `json:"completedModules"`
	TotalModules      int       `json:"totalModules"`
	TimeSpentMinutes  int       `json:"timeSpentMinutes"`
	EstimatedTimeLeft int       `json:"estimatedTimeLeft"` // minutes
	LastAccessed      time.Time `json:"lastAccessed"`
}
