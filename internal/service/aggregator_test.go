package service

import (
	"testing"
	"time"

	"edusync/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestAggregateEmptyCourse(t *testing.T) {
	summary := AggregateCourse(100, nil, 30)

	assert.Equal(t, 0, summary.OverallProgress, "no modules yields 0%%, not an error")
	assert.Equal(t, 0, summary.TotalModules)
	assert.Equal(t, 0, summary.EstimatedTimeLeft)
}

func TestAggregateCourse(t *testing.T) {
	done := time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC)
	later := time.Date(2025, 5, 31, 18, 0, 0, 0, time.UTC)

	records := []model.ModuleProgressRecord{
		{ProgressPercentage: 100, TimeSpentMinutes: 25, CompletedAt: &done, LastAccessed: done},
		{ProgressPercentage: 50, TimeSpentMinutes: 10, LastAccessed: later},
		{ProgressPercentage: 0, TimeSpentMinutes: 0, LastAccessed: done},
	}

	summary := AggregateCourse(100, records, 30)

	assert.Equal(t, uint(100), summary.CourseID)
	assert.Equal(t, 50, summary.OverallProgress)
	assert.Equal(t, 1, summary.CompletedModules)
	assert.Equal(t, 3, summary.TotalModules)
	assert.Equal(t, 35, summary.TimeSpentMinutes)
	// 2 个未完成模块 × 30 分钟 - 已花 35 分钟
	assert.Equal(t, 25, summary.EstimatedTimeLeft)
	assert.Equal(t, later, summary.LastAccessed)
}

func TestAggregateEstimatedTimeFloorsAtZero(t *testing.T) {
	records := []model.ModuleProgressRecord{
		{ProgressPercentage: 90, TimeSpentMinutes: 500},
	}

	summary := AggregateCourse(100, records, 30)
	assert.Equal(t, 0, summary.EstimatedTimeLeft)
}
