package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stock-quant-backend/internal/model"
	"stock-quant-backend/internal/risk"
)

// RunBacktest 执行回测。strategy为min_point时走诊断分支，不产生模拟交易
func RunBacktest(c *gin.Context) {
	var req model.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "请求参数错误: " + err.Error(),
		})
		return
	}

	if req.Strategy == "min_point" {
		results, errors := svc.MinPointDiagnostic(req.Codes)
		c.JSON(http.StatusOK, gin.H{
			"results": results,
			"errors":  errors,
		})
		return
	}

	resp, err := svc.RunBacktest(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PortfolioRiskRequest 组合风险请求
type PortfolioRiskRequest struct {
	Positions []risk.PositionValue `json:"positions" binding:"required"`
}

// GetPortfolioRisk 组合集中度与相关性分析
func GetPortfolioRisk(c *gin.Context) {
	var req PortfolioRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "请求参数错误: " + err.Error(),
		})
		return
	}

	result, report := svc.PortfolioRiskReport(req.Positions)
	c.JSON(http.StatusOK, gin.H{
		"risk":   result,
		"report": report,
	})
}
