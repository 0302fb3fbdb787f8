package controller

import (
	"campus_spirit_backend/internal/model"
	"campus_spirit_backend/internal/service"
	"campus_spirit_backend/internal/util"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type PointsController struct {
	pointsService *service.PointsService
}

func NewPointsController(pointsService *service.PointsService) *PointsController {
	return &PointsController{pointsService: pointsService}
}

// CreditRequest 记账请求体，delta 省略时使用该行为的配置默认分值
type CreditRequest struct {
	SpiritID    string `json:"spiritId" binding:"required"`
	Delta       int    `json:"delta"`
	Action      string `json:"action" binding:"required"`
	Description string `json:"description"`
}

// Credit 为一次用户行为记积分
// @Summary 积分记账
// @Description 按行为类型加分并重评成就，用户不存在时自动建档
// @Tags Points
// @Accept json
// @Produce json
// @Param request body CreditRequest true "行为信息"
// @Success 200 {object} util.Response
// @Router /api/points/credit [post]
func (c *PointsController) Credit(ctx *gin.Context) {
	var req CreditRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := c.pointsService.Credit(req.SpiritID, req.Delta, model.ActionKind(req.Action), req.Description)
	if err != nil {
		if errors.Is(err, util.ErrInvalidSpiritID) || errors.Is(err, util.ErrInvalidAction) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Stats 用户积分面板
// @Summary 用户积分统计
// @Tags Points
// @Produce json
// @Param spiritId path string true "用户标识"
// @Success 200 {object} util.Response
// @Router /api/points/stats/{spiritId} [get]
func (c *PointsController) Stats(ctx *gin.Context) {
	stats, err := c.pointsService.Stats(ctx.Param("spiritId"))
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// Leaderboard 积分排行榜
// @Summary 排行榜
// @Description 匿名别名展示，支持 limit 参数
// @Tags Points
// @Produce json
// @Param limit query int false "条数，默认 10"
// @Success 200 {object} util.Response
// @Router /api/points/leaderboard [get]
func (c *PointsController) Leaderboard(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	entries, err := c.pointsService.Leaderboard(ctx.Request.Context(), limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}

// Rank 用户名次与百分比
// @Summary 用户名次
// @Tags Points
// @Produce json
// @Param spiritId path string true "用户标识"
// @Success 200 {object} util.Response
// @Router /api/points/rank/{spiritId} [get]
func (c *PointsController) Rank(ctx *gin.Context) {
	rank, err := c.pointsService.Rank(ctx.Param("spiritId"))
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, rank)
}

// RedeemRequest 兑换请求体
type RedeemRequest struct {
	SpiritID  string `json:"spiritId" binding:"required"`
	Threshold int    `json:"threshold" binding:"required"`
}

// Redeem 兑换奖品
// @Summary 奖品兑换
// @Description 积分达到档位即可登记兑换，不扣减积分
// @Tags Points
// @Accept json
// @Produce json
// @Param request body RedeemRequest true "兑换信息"
// @Success 200 {object} util.Response
// @Router /api/points/redeem [post]
func (c *PointsController) Redeem(ctx *gin.Context) {
	var req RedeemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := c.pointsService.Redeem(req.SpiritID, req.Threshold)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUserNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInsufficientPoints):
			util.Error(ctx, http.StatusForbidden, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}

// StreakRequest 连续活跃请求体
type StreakRequest struct {
	SpiritID string `json:"spiritId" binding:"required"`
}

// Streak 结算连续活跃奖励
// @Summary 连续活跃奖励
// @Description 昨天活跃且今天首次调用时发放奖励，其余情况返回 0
// @Tags Points
// @Accept json
// @Produce json
// @Param request body StreakRequest true "用户标识"
// @Success 200 {object} util.Response
// @Router /api/points/streak [post]
func (c *PointsController) Streak(ctx *gin.Context) {
	var req StreakRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bonus, err := c.pointsService.DailyStreak(req.SpiritID)
	if err != nil {
		if errors.Is(err, util.ErrInvalidSpiritID) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"spiritId": req.SpiritID, "streakBonus": bonus})
}

// History 最近积分流水
// @Summary 积分流水
// @Tags Points
// @Produce json
// @Param spiritId path string true "用户标识"
// @Param limit query int false "条数，默认 20"
// @Success 200 {object} util.Response
// @Router /api/points/history/{spiritId} [get]
func (c *PointsController) History(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	txs, err := c.pointsService.History(ctx.Param("spiritId"), limit)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, txs)
}

// Rewards 奖品目录
// @Summary 奖品档位表
// @Tags Points
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/points/rewards [get]
func (c *PointsController) Rewards(ctx *gin.Context) {
	util.Success(ctx, service.RewardTiers())
}
