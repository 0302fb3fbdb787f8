package controller

import (
	"campus_spirit_backend/internal/service"
	"campus_spirit_backend/internal/util"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB        *gorm.DB
	RDB       *redis.Client
	AIService *service.AIService
}

func NewHealthController(db *gorm.DB, rdb *redis.Client, aiService *service.AIService) *HealthController {
	return &HealthController{DB: db, RDB: rdb, AIService: aiService}
}

// HealthCheck 服务健康检查
// @Summary 健康检查
// @Description 数据库必检，Redis 与生成端仅上报状态不影响整体判定
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	components := gin.H{}

	// 数据库不可用视为整体不健康
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}
	if err := sqlDB.Ping(); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	components["database"] = "up"

	if c.RDB != nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		if err := c.RDB.Ping(pingCtx).Err(); err != nil {
			components["redis"] = "down"
		} else {
			components["redis"] = "up"
		}
	} else {
		components["redis"] = "disabled"
	}

	switch err := c.AIService.CheckHealth(); {
	case err == nil:
		components["generator"] = "up"
	case errors.Is(err, util.ErrGeneratorModelMissing):
		components["generator"] = "model_missing"
	default:
		components["generator"] = "unreachable"
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}
