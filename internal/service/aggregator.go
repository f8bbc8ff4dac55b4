package service

import "edusync/internal/model"

// AggregateCourse 由模块记录推导课程汇总。纯函数，无 I/O，
// 每次本地变更后调用都是安全的。没有模块时进度为 0 而不是报错。
func AggregateCourse(courseID uint, records []model.ModuleProgressRecord, moduleMinutes int) model.CourseProgressSummary {
	summary := model.CourseProgressSummary{
		CourseID:     courseID,
		TotalModules: len(records),
	}
	if len(records) == 0 {
		return summary
	}

	totalPct := 0
	for _, rec := range records {
		totalPct += rec.ProgressPercentage
		summary.TimeSpentMinutes += rec.TimeSpentMinutes
		if rec.Completed() {
			summary.CompletedModules++
		}
		if rec.LastAccessed.After(summary.LastAccessed) {
			summary.LastAccessed = rec.LastAccessed
		}
	}
	summary.OverallProgress = totalPct / len(records)

	remaining := summary.TotalModules - summary.CompletedModules
	estimated := remaining*moduleMinutes - summary.TimeSpentMinutes
	if estimated < 0 {
		estimated = 0
	}
	summary.EstimatedTimeLeft = estimated

	return summary
}
