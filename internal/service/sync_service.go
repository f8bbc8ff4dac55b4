package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"edusync/internal/config"
	"edusync/internal/model"
	"edusync/internal/remote"
	"edusync/internal/repository"
	"edusync/internal/util"
	"edusync/pkg/logger"
	"edusync/pkg/monitoring"
	"edusync/pkg/tracing"

	"go.uber.org/zap"
)

// SyncEngine 把待同步队列排空到远端记录源。
//
// 调度规则：每次入队都重置同一个共享防抖定时器，静默期结束后一次
// 网络往返带走整个队列；离线期间变更继续在本地合并，恢复在线立即
// 触发排空。推送失败的变更留在队列里等下一次触发，数据不会丢。
type SyncEngine struct {
	Queue        *PendingQueue
	ProgressRepo *repository.ProgressRepository
	Remote       remote.Store // nil 表示纯本地模式，不做远端同步
	Notifier     Notifier

	clock Clock

	mu        sync.Mutex
	cfg       config.SyncConfig
	online    bool
	degraded  bool
	lastDrain time.Time
	lastErr   error

	resched chan struct{}
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

func NewSyncEngine(
	queue *PendingQueue,
	progressRepo *repository.ProgressRepository,
	remoteStore remote.Store,
	notifier Notifier,
	cfg config.SyncConfig,
	clock Clock,
) *SyncEngine {
	return &SyncEngine{
		Queue:        queue,
		ProgressRepo: progressRepo,
		Remote:       remoteStore,
		Notifier:     notifier,
		clock:        clock,
		cfg:          cfg,
		online:       true,
		resched:      make(chan struct{}, 1),
		wake:         make(chan struct{}, 1),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

func (e *SyncEngine) Start() {
	go e.run()
}

func (e *SyncEngine) Stop() {
	close(e.stop)
	<-e.done
}

// Schedule 变更入队后调用，重置防抖窗口。连续编辑只产生一次推送。
func (e *SyncEngine) Schedule() {
	select {
	case e.resched <- struct{}{}:
	default:
	}
}

// SyncNow 绕过防抖立即排空(手动同步或恢复在线时)
func (e *SyncEngine) SyncNow() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Flush 在调用方的 goroutine 里同步排空一次，不经过防抖循环。
// 停机路径先 Stop 再 Flush，保证推得出去的变更都在退出前推出去。
func (e *SyncEngine) Flush() {
	e.drainOnce()
}

// SetOnline 接收运行环境的连通性信号
func (e *SyncEngine) SetOnline(online bool) {
	e.mu.Lock()
	wasOnline := e.online
	e.online = online
	e.mu.Unlock()

	if online && !wasOnline {
		logger.Log.Info("connectivity restored, draining pending mutations")
		e.SyncNow()
	}
}

// UpdateConfig 配置热更新入口
func (e *SyncEngine) UpdateConfig(cfg config.SyncConfig) {
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
}

// SyncStatus 暴露给 UI 的同步状态
type SyncStatus struct {
	QueueSize int       `json:"queueSize"`
	Online    bool      `json:"online"`
	Degraded  bool      `json:"degraded"`
	LastDrain time.Time `json:"lastDrain,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

func (e *SyncEngine) Status() SyncStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := SyncStatus{
		QueueSize: e.Queue.Size(),
		Online:    e.online,
		Degraded:  e.degraded,
		LastDrain: e.lastDrain,
	}
	if e.lastErr != nil {
		status.LastError = e.lastErr.Error()
	}
	return status
}

// Hydrate 冷启动时用远端数据填充本地存储。远端为准，但复合键上已有
// 在途本地变更时保留本地状态(本地在途优先于过期的远端)。
func (e *SyncEngine) Hydrate(ctx context.Context, userID uint) error {
	if e.Remote == nil || userID == 0 {
		return nil
	}

	records, err := e.Remote.ListProgress(ctx, userID, 0)
	if err != nil {
		return err
	}

	for i := range records {
		rec := records[i]
		if e.Queue.Has(rec.Key()) {
			continue
		}
		rec.ID = 0
		if err := e.ProgressRepo.Upsert(&rec); err != nil {
			return err
		}
	}

	logger.Log.Info("hydrated local store from remote",
		zap.Uint("userId", userID),
		zap.Int("records", len(records)),
	)
	return nil
}

func (e *SyncEngine) run() {
	defer close(e.done)

	e.mu.Lock()
	debounce := e.cfg.DebounceInterval
	e.mu.Unlock()

	timer := e.clock.NewTimer(debounce)
	if !timer.Stop() {
		select {
		case <-timer.C():
		default:
		}
	}

	for {
		select {
		case <-e.resched:
			// 单个共享定时器：任何键的新变更都会取消并重排，
			// 同步总是瞄准整个队列的静默期
			if !timer.Stop() {
				select {
				case <-timer.C():
				default:
				}
			}
			e.mu.Lock()
			debounce = e.cfg.DebounceInterval
			e.mu.Unlock()
			timer.Reset(debounce)
		case <-timer.C():
			e.drainOnce()
		case <-e.wake:
			if !timer.Stop() {
				select {
				case <-timer.C():
				default:
				}
			}
			e.drainOnce()
		case <-e.stop:
			timer.Stop()
			return
		}
	}
}

// drainOnce 排空一轮。失败的变更放回队列(不重复入队)，整轮标记为降级。
func (e *SyncEngine) drainOnce() {
	e.mu.Lock()
	online := e.online
	e.mu.Unlock()
	if !online {
		return
	}

	mutations := e.Queue.Drain()
	if len(mutations) == 0 {
		return
	}

	var lastErr error
	degraded := false
	for _, mut := range mutations {
		if err := e.pushWithRetry(mut); err != nil {
			e.Queue.Requeue(mut)
			degraded = true
			lastErr = err
			monitoring.SyncPushCounter.WithLabelValues("failure").Inc()
			logger.Log.Warn("push failed, mutation kept in queue",
				zap.Uint("moduleId", mut.Key.ModuleID),
				zap.Uint("courseId", mut.Key.CourseID),
				zap.Error(err),
			)
			continue
		}

		monitoring.SyncPushCounter.WithLabelValues("success").Inc()

		// 完成事件只在首次完成的变更被确认后发一次；
		// 重试同一变更或重传已完成记录都不会再触发
		if mut.FirstCompletion {
			e.Notifier.Notify(Event{
				Type:   EventModuleCompleted,
				UserID: mut.Key.UserID,
				Payload: map[string]interface{}{
					"moduleId":    mut.Key.ModuleID,
					"courseId":    mut.Key.CourseID,
					"moduleType":  string(mut.Key.ModuleType),
					"completedAt": mut.Record.CompletedAt,
				},
				OccurredAt: e.clock.Now(),
			})
		}
	}

	if degraded {
		lastErr = fmt.Errorf("%w: %v", util.ErrSyncDegraded, lastErr)
	}

	e.mu.Lock()
	e.degraded = degraded
	e.lastDrain = e.clock.Now()
	e.lastErr = lastErr
	e.mu.Unlock()

	if degraded {
		monitoring.SyncDegradedCounter.Inc()
		e.Notifier.Notify(Event{
			Type:       EventSyncDegraded,
			UserID:     mutations[0].Key.UserID,
			Payload:    map[string]interface{}{"queueSize": e.Queue.Size()},
			OccurredAt: e.clock.Now(),
		})
	}
}

// pushWithRetry 有界重试加指数退避，单次推送受超时约束
func (e *SyncEngine) pushWithRetry(mut model.PendingMutation) error {
	e.mu.Lock()
	maxAttempts := e.cfg.MaxAttempts
	backoff := e.cfg.BackoffBase
	pushTimeout := e.cfg.PushTimeout
	e.mu.Unlock()

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			monitoring.SyncRetryCounter.Inc()
			e.clock.Sleep(backoff << (attempt - 1))
		}

		err = e.push(mut, pushTimeout)
		if err == nil {
			return nil
		}
	}
	return err
}

func (e *SyncEngine) push(mut model.PendingMutation, timeout time.Duration) error {
	if e.Remote == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ctx, span := tracing.StartPushSpan(ctx, mut.Key.UserID, mut.Key.ModuleID, mut.Key.CourseID)
	err := e.Remote.UpsertProgress(ctx, &mut.Record)
	tracing.EndPushSpan(span, err)
	return err
}
