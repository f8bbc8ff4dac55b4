package controller

import (
	"errors"
	"strconv"

	"edusync/internal/service"
	"edusync/internal/util"

	"github.com/gin-gonic/gin"
)

type AchievementController struct {
	AchievementService *service.AchievementService
	WalletService      *service.WalletService
}

func NewAchievementController(achievementService *service.AchievementService, walletService *service.WalletService) *AchievementController {
	return &AchievementController{
		AchievementService: achievementService,
		WalletService:      walletService,
	}
}

// GetUserAchievements 成就目录与当前用户的解锁/领取状态
func (c *AchievementController) GetUserAchievements(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	achievements, err := c.AchievementService.GetUserAchievements(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, achievements)
}

// ClaimAchievement 领取已解锁成就的金币奖励
func (c *AchievementController) ClaimAchievement(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	achievementID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid achievement id")
		return
	}

	coins, err := c.WalletService.Claim(ctx.Request.Context(), user.UserID, uint(achievementID))
	switch {
	case errors.Is(err, util.ErrAchievementLocked):
		util.Conflict(ctx, err.Error())
		return
	case errors.Is(err, util.ErrAlreadyClaimed):
		util.Conflict(ctx, err.Error())
		return
	case errors.Is(err, util.ErrAchievementNotFound):
		util.NotFound(ctx)
		return
	case err != nil:
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"coinsAwarded": coins})
}
