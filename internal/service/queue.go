package service

import (
	"sync"

	"edusync/internal/model"
	"edusync/pkg/monitoring"
)

// PendingQueue 待同步变更队列。同一复合键只保留一个槽位：对同一模块的
// 连续编辑会合并成最终状态，队列长度受触碰过的记录数约束，与编辑频率无关。
type PendingQueue struct {
	mu    sync.Mutex
	items map[model.ProgressKey]*model.PendingMutation
}

func NewPendingQueue() *PendingQueue {
	return &PendingQueue{
		items: make(map[model.ProgressKey]*model.PendingMutation),
	}
}

// Enqueue 入队并按键合并。已有条目被新状态整体替换，
// FirstCompletion 标志做或运算，保证完成事件不会因合并丢失。
func (q *PendingQueue) Enqueue(mut model.PendingMutation) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if existing, ok := q.items[mut.Key]; ok {
		mut.FirstCompletion = mut.FirstCompletion || existing.FirstCompletion
		mut.EnqueuedAt = existing.EnqueuedAt
	}
	q.items[mut.Key] = &mut
	monitoring.PendingQueueDepth.Set(float64(len(q.items)))
}

// Requeue 推送失败后放回。期间若有更新的变更入队，保留新状态，
// 只把完成标志并进去，避免产生重复条目。
func (q *PendingQueue) Requeue(mut model.PendingMutation) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if existing, ok := q.items[mut.Key]; ok {
		existing.FirstCompletion = existing.FirstCompletion || mut.FirstCompletion
	} else {
		q.items[mut.Key] = &mut
	}
	monitoring.PendingQueueDepth.Set(float64(len(q.items)))
}

// Drain 取出并清空当前全部条目
func (q *PendingQueue) Drain() []model.PendingMutation {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := make([]model.PendingMutation, 0, len(q.items))
	for _, mut := range q.items {
		drained = append(drained, *mut)
	}
	q.items = make(map[model.ProgressKey]*model.PendingMutation)
	monitoring.PendingQueueDepth.Set(0)
	return drained
}

func (q *PendingQueue) Has(key model.ProgressKey) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.items[key]
	return ok
}

func (q *PendingQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
