package main

import (
	"github.com/gin-gonic/gin"
	"rete.backend/internal/interfaces/http/handlers"
	"rete.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	settlementHandler *handlers.SettlementHandler
	walletHandler     *handlers.WalletHandler
	tokenHandler      *handlers.TokenHandler
	adminHandler      *handlers.AdminHandler
	realtimeHandler   *handlers.RealtimeHandler
	authMiddleware    gin.HandlerFunc
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Realtime authenticates the upgrade request itself
		v1.GET("/realtime", d.realtimeHandler.Connect)

		// Account ledger (protected)
		account := v1.Group("")
		account.Use(d.authMiddleware)
		{
			account.GET("/balance", d.settlementHandler.GetBalance)
			account.GET("/transactions", d.settlementHandler.ListTransactions)
			account.GET("/transactions/pending", d.settlementHandler.ListPendingTransactions)
			account.POST("/transfers", middleware.IdempotencyMiddleware(), d.settlementHandler.Transfer)
			account.POST("/purchases", middleware.IdempotencyMiddleware(), d.settlementHandler.Purchase)
		}

		// Wallet routes (protected)
		wallets := v1.Group("/wallets")
		wallets.Use(d.authMiddleware)
		{
			wallets.POST("", d.walletHandler.CreateWallet)
			wallets.GET("", d.walletHandler.ListWallets)
			wallets.PUT("/:id/default", d.walletHandler.SetDefaultWallet)
		}

		// Community routes (protected, coordinator checks in usecases)
		communities := v1.Group("/communities/:communityId")
		communities.Use(d.authMiddleware)
		{
			communities.POST("/distributions", middleware.IdempotencyMiddleware(), d.settlementHandler.Distribute)
			communities.POST("/burns", middleware.IdempotencyMiddleware(), d.settlementHandler.Burn)
			communities.POST("/burns/all", middleware.IdempotencyMiddleware(), d.settlementHandler.BurnAll)
			communities.GET("/providers/:providerId/balance", d.settlementHandler.GetProviderBalance)

			communities.GET("/token", d.tokenHandler.GetToken)
			communities.POST("/token", d.tokenHandler.DeployToken)
			communities.DELETE("/token", d.tokenHandler.ResetToken)
		}

		// Admin routes (protected)
		admin := v1.Group("/admin")
		admin.Use(d.authMiddleware, middleware.RequireAdmin())
		{
			admin.POST("/settlements/reconcile", d.adminHandler.ReconcilePending)
			admin.POST("/settlements/:id/reconcile", d.adminHandler.ReconcileSettlement)
		}
	}
}
