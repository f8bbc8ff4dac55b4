package util

import "errors"

var (
	ErrRecordNotFound      = errors.New("progress record not found")
	ErrInvalidProgress     = errors.New("invalid progress value")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientCoins   = errors.New("insufficient coin balance")
	ErrAchievementNotFound = errors.New("achievement not found")
	ErrAchievementLocked   = errors.New("achievement not unlocked")
	ErrAlreadyClaimed      = errors.New("achievement reward already claimed")
	ErrSyncDegraded        = errors.New("sync degraded, changes kept locally")
	ErrRemoteUnavailable   = errors.New("remote store unavailable")
)
