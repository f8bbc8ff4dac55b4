package service

import (
	"time"

	"edusync/pkg/logger"

	"go.uber.org/zap"
)

type EventType string

const (
	EventPointsAwarded       EventType = "points_awarded"
	EventAchievementUnlocked EventType = "achievement_unlocked"
	EventModuleCompleted     EventType = "module_completed"
	EventSyncDegraded        EventType = "sync_degraded"
)

// Event 发给 UI 通知层的事件，只管发出，不关心投递结果
type Event struct {
	Type       EventType              `json:"type"`
	UserID     uint                   `json:"userId"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

type Notifier interface {
	Notify(event Event)
}

// LogNotifier 默认实现：事件写进结构化日志，由外层通知管道消费
type LogNotifier struct{}

func (LogNotifier) Notify(event Event) {
	logger.Log.Info("notification",
		zap.String("type", string(event.Type)),
		zap.Uint("userId", event.UserID),
		zap.Any("payload", event.Payload),
	)
}

// NopNotifier 本地模式或测试时使用
type NopNotifier struct{}

func (NopNotifier) Notify(Event) {}
