package main

import (
	"bufio"
	"log"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"stock-quant-backend/internal/cache"
	"stock-quant-backend/internal/handler"
	"stock-quant-backend/internal/holiday"
	"stock-quant-backend/internal/scheduler"
	"stock-quant-backend/internal/service"
	"stock-quant-backend/internal/stockdata"
	"stock-quant-backend/internal/store"
)

func init() {
	// 手动加载 .env 文件
	file, err := os.Open(".env")
	if err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			os.Setenv(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
		}
	}
}

func main() {
	dbPath := os.Getenv("RECORDS_DB_PATH")
	if dbPath == "" {
		dbPath = "data"
	}
	st, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("打开记录库失败: %v", err)
	}
	defer st.Close()

	// 配置了Redis就用Redis做行情缓存，否则用进程内缓存
	if os.Getenv("REDIS_ADDR") != "" {
		if err := cache.InitRedis(); err != nil {
			log.Printf("[WARN][Server] %v，改用进程内缓存", err)
		} else {
			stockdata.SetCacheProvider(cache.Provider{})
			defer cache.Close()
		}
	}

	if err := holiday.LoadCustomHolidays(os.Getenv("HOLIDAY_CONFIG_PATH")); err != nil {
		log.Printf("[WARN][Server] %v", err)
	}

	svc := service.New(st)
	handler.Init(svc)
	scheduler.StartPostMarketUpdate(svc)

	r := gin.Default()

	// 配置 CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// 注册路由
	api := r.Group("/api")
	{
		// 股票与行情
		api.GET("/stocks", handler.GetStocks)
		api.GET("/stocks/:code/kline", handler.GetKline)
		api.POST("/stocks/:code/refresh", handler.RefreshStock)
		api.GET("/stocks/:code/signals", handler.GetSignals)

		// 回测与分析
		api.POST("/backtest", handler.RunBacktest)
		api.GET("/stocks/:code/risk", handler.GetRisk)
		api.GET("/stocks/:code/points", handler.GetPoints)
		api.POST("/portfolio/risk", handler.GetPortfolioRisk)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("服务启动在端口 %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("启动服务失败: %v", err)
	}
}
