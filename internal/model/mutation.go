package model

import "time"

// PendingMutation 尚未被远端确认的进度变更，按复合键在队列中合并
//
// FirstCompletion 区分"本次变更首次进入完成态"与"重传一条已完成记录"，
// 用于避免重试后完成事件重复触发。
type PendingMutation struct {
	Key             ProgressKey          `json:"key"`
	Record          ModuleProgressRecord `json:"record"`
	FirstCompletion bool                 `json:"firstCompletion"`
	EnqueuedAt      time.Time            `json:"enqueuedAt"`
}
