package controller

import (
	"errors"
	"strconv"

	"edusync/internal/model"
	"edusync/internal/service"
	"edusync/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

func parseProgressKey(ctx *gin.Context, userID uint) (model.ProgressKey, bool) {
	moduleID, err := strconv.ParseUint(ctx.Param("moduleId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid module id")
		return model.ProgressKey{}, false
	}

	courseID, err := strconv.ParseUint(ctx.Query("courseId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "courseId is required")
		return model.ProgressKey{}, false
	}

	moduleType := model.ModuleType(ctx.DefaultQuery("type", string(model.ModuleLesson)))

	return model.ProgressKey{
		UserID:     userID,
		ModuleID:   uint(moduleID),
		ModuleType: moduleType,
		CourseID:   uint(courseID),
	}, true
}

// GetModuleProgress 查询用户在某模块的当前记录
func (c *ProgressController) GetModuleProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	key, ok := parseProgressKey(ctx, user.UserID)
	if !ok {
		return
	}

	rec, err := c.ProgressService.GetModule(key)
	if errors.Is(err, util.ErrRecordNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, rec)
}

// UpdateModuleProgress 应用一次进度变更
func (c *ProgressController) UpdateModuleProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	key, ok := parseProgressKey(ctx, user.UserID)
	if !ok {
		return
	}

	var upd service.ProgressUpdate
	if err := ctx.ShouldBindJSON(&upd); err != nil {
		util.BadRequest(ctx, "invalid request body")
		return
	}

	rec, err := c.ProgressService.ApplyUpdate(ctx.Request.Context(), key, upd)
	if errors.Is(err, util.ErrInvalidProgress) || errors.Is(err, util.ErrInvalidAmount) {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	summary, err := c.ProgressService.GetCourseSummary(user.UserID, key.CourseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"record":  rec,
		"summary": summary,
	})
}

// GetCourseSummary 课程级进度汇总
func (c *ProgressController) GetCourseSummary(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID, err := strconv.ParseUint(ctx.Param("courseId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	summary, err := c.ProgressService.GetCourseSummary(user.UserID, uint(courseID))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, summary)
}
