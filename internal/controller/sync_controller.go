package controller

import (
	"edusync/internal/service"
	"edusync/internal/util"

	"github.com/gin-gonic/gin"
)

type SyncController struct {
	SyncEngine *service.SyncEngine
}

func NewSyncController(syncEngine *service.SyncEngine) *SyncController {
	return &SyncController{SyncEngine: syncEngine}
}

// GetStatus 队列深度、在线状态与降级标志
func (c *SyncController) GetStatus(ctx *gin.Context) {
	util.Success(ctx, c.SyncEngine.Status())
}

// SyncNow 手动触发一次排空
func (c *SyncController) SyncNow(ctx *gin.Context) {
	c.SyncEngine.SyncNow()
	util.Success(ctx, gin.H{"triggered": true})
}

type ConnectivityRequest struct {
	Online *bool `json:"online" binding:"required"`
}

// SetConnectivity 运行环境上报在线/离线切换；恢复在线会立即排空队列
func (c *SyncController) SetConnectivity(ctx *gin.Context) {
	var req ConnectivityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "invalid request body")
		return
	}

	c.SyncEngine.SetOnline(*req.Online)
	util.Success(ctx, c.SyncEngine.Status())
}
