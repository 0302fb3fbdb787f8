package controller

import (
	"campus_spirit_backend/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type QAController struct {
	qaService *service.QAService
}

func NewQAController(qaService *service.QAService) *QAController {
	return &QAController{qaService: qaService}
}

// AskRequest 问答请求体
type AskRequest struct {
	Question string                 `json:"question" binding:"required"`
	SpiritID string                 `json:"spiritId"`
	History  []service.DialogueTurn `json:"history"`
}

// Ask 处理非流式问答
// @Summary SpiritBot 问答
// @Description 检索校园知识库并生成回答，带 spiritId 时顺带结算积分
// @Tags QA
// @Accept json
// @Produce json
// @Param request body AskRequest true "问题内容"
// @Success 200 {object} util.Response
// @Router /api/qa/ask [post]
func (c *QAController) Ask(ctx *gin.Context) {
	var req AskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := c.qaService.Ask(req.Question, req.History, req.SpiritID)
	ctx.JSON(http.StatusOK, result)
}

// AskStream 处理流式问答
// @Summary SpiritBot 流式问答
// @Description SSE 逐段推送生成内容
// @Tags QA
// @Accept json
// @Produce text/event-stream
// @Param request body AskRequest true "问题内容"
// @Router /api/qa/ask/stream [post]
func (c *QAController) AskStream(ctx *gin.Context) {
	var req AskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stream, result := c.qaService.AskStream(req.Question, req.History, req.SpiritID)

	// SSE 响应头
	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("Transfer-Encoding", "chunked")

	// 先推送积分结算结果
	if result.Credited != nil || result.StreakBonus > 0 {
		ctx.SSEvent("points", result)
		ctx.Writer.Flush()
	}

	for content := range stream {
		ctx.SSEvent("message", content)
		ctx.Writer.Flush()
	}

	ctx.SSEvent("end", "done")
	ctx.Writer.Flush()
}
