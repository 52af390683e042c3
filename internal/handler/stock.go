package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stock-quant-backend/internal/service"
	"stock-quant-backend/internal/stockdata"
)

var svc *service.Service

// Init 注入服务实例，必须在注册路由前调用
func Init(s *service.Service) {
	svc = s
}

// GetStocks 获取/搜索股票列表
func GetStocks(c *gin.Context) {
	keyword := c.Query("keyword")

	stocks, err := stockdata.SearchStocks(keyword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": stocks,
	})
}

// GetKline 获取一只股票的K线与指标记录
func GetKline(c *gin.Context) {
	code := c.Param("code")

	records, err := svc.LoadRecords(code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": code,
		"data": records,
	})
}

// RefreshStock 强制拉取最新行情并重算指标
func RefreshStock(c *gin.Context) {
	code := c.Param("code")

	count, err := svc.UpdateSymbol(code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    code,
		"records": count,
	})
}

// GetSignals 金叉死叉序列与资金流向评分
func GetSignals(c *gin.Context) {
	code := c.Param("code")

	summary, err := svc.Signals(code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetRisk 单只股票风险分析
func GetRisk(c *gin.Context) {
	code := c.Param("code")

	metrics, report, err := svc.RiskReport(code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metrics": metrics,
		"report":  report,
	})
}

// GetPoints 关键点位分析
func GetPoints(c *gin.Context) {
	code := c.Param("code")

	points, report, err := svc.PointReport(code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"points": points,
		"report": report,
	})
}
