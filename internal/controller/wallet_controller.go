package controller

import (
	"errors"
	"strconv"

	"edusync/internal/service"
	"edusync/internal/util"

	"github.com/gin-gonic/gin"
)

type WalletController struct {
	WalletService *service.WalletService
}

func NewWalletController(walletService *service.WalletService) *WalletController {
	return &WalletController{WalletService: walletService}
}

// GetWallet 余额与等级概览
func (c *WalletController) GetWallet(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.WalletService.Summary(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, summary)
}

// GetTransactions 最近的流水
func (c *WalletController) GetTransactions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	limit := 20
	if limitStr := ctx.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	txns, err := c.WalletService.RecentTransactions(user.UserID, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, txns)
}

type SpendRequest struct {
	Amount int    `json:"amount" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// Spend 消费金币
func (c *WalletController) Spend(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SpendRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "invalid request body")
		return
	}

	err := c.WalletService.Spend(ctx.Request.Context(), user.UserID, req.Amount, req.Reason)
	switch {
	case errors.Is(err, util.ErrInvalidAmount):
		util.BadRequest(ctx, err.Error())
		return
	case errors.Is(err, util.ErrInsufficientCoins):
		util.Conflict(ctx, err.Error())
		return
	case err != nil:
		util.LogInternalError(ctx, err)
		return
	}

	summary, err := c.WalletService.Summary(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, summary)
}
