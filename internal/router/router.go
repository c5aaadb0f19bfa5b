package router

import (
	"safescan/internal/handlers"
	"safescan/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	// Handlers
	authHandler := handlers.NewAuthHandler()
	productHandler := handlers.NewProductHandler()
	ingredientHandler := handlers.NewIngredientHandler()
	voteHandler := handlers.NewVoteHandler()
	queueHandler := handlers.NewQueueHandler()
	subscriptionHandler := handlers.NewSubscriptionHandler()

	api := r.Group("/api")

	// 公共路由 (Public Routes)
	api.GET("/products", productHandler.List)                        // 产品列表
	api.GET("/products/:pid", productHandler.Detail)                 // 产品详情（含成分评级）
	api.GET("/products/barcode/:barcode", productHandler.GetByBarcode) // 扫码查询
	api.GET("/ingredients", ingredientHandler.List)                  // 成分列表
	api.GET("/ingredients/:id", ingredientHandler.Get)               // 成分详情
	api.POST("/votes", voteHandler.Record)                           // 众筹投票
	api.GET("/queue", queueHandler.List)                             // 检测队列
	api.GET("/queue/:barcode", queueHandler.Get)                     // 单条码众筹进度
	api.POST("/subscriptions", subscriptionHandler.Subscribe)        // 检测完成提醒订阅

	api.POST("/admin/login", authHandler.Login)   // 后台登录
	api.POST("/admin/logout", authHandler.Logout) // 退出登录

	// 管理端路由 (Admin Routes)
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired())
	{
		admin.POST("/ingredients", ingredientHandler.Create)               // 新建成分
		admin.PUT("/ingredients/:id", ingredientHandler.Update)            // 编辑成分
		admin.PUT("/ingredients/:id/verdict", ingredientHandler.UpdateVerdict) // 修改评级（触发级联）

		admin.POST("/products", productHandler.Create)          // 录入产品
		admin.PUT("/products/:pid", productHandler.Update)      // 编辑产品
		admin.PUT("/products/:pid/override", productHandler.Override) // 设置/撤销人工覆盖

		admin.POST("/queue/:barcode/advance", queueHandler.Advance)   // 推进队列状态
		admin.POST("/queue/:barcode/complete", queueHandler.Complete) // 检测完成
		admin.POST("/queue/:barcode/reset", queueHandler.Reset)       // 重置众筹进度
	}
}
