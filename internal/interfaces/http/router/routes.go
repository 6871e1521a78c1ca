package router

import (
	"github.com/gin-gonic/gin"
	"github.com/thehub/backend/internal/interfaces/http/handler"
)

// Handlers bundles the API handlers
type Handlers struct {
	System     *handler.SystemHandler
	Tables     *handler.TableHandler
	Sessions   *handler.SessionHandler
	Members    *handler.MemberHandler
	Affiliates *handler.AffiliateHandler
}

// Guards are the auth middlewares. Authenticate runs on every resource route;
// RequireAdmin is added to the administrative ones.
type Guards struct {
	Authenticate gin.HandlerFunc
	RequireAdmin gin.HandlerFunc
}

// RegisterAPI wires every /api/v1 route plus the unversioned /health probe.
func RegisterAPI(engine *gin.Engine, h Handlers, g Guards, opts ...RouterOption) *Router {
	engine.GET("/health", h.System.Health)

	r := NewRouter(engine, opts...)

	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)
	r.Register(system)

	info := NewDomainGroup("system-info", "/system").Use(g.Authenticate)
	info.GET("/info", h.System.GetSystemInfo)
	r.Register(info)

	tables := NewDomainGroup("tables", "/tables").Use(g.Authenticate)
	tables.POST("", g.RequireAdmin, h.Tables.Create)
	tables.GET("", h.Tables.List)
	tables.GET("/:id", h.Tables.GetByID)
	tables.PUT("/:id/rate", g.RequireAdmin, h.Tables.UpdateRate)
	r.Register(tables)

	sessions := NewDomainGroup("sessions", "/sessions").Use(g.Authenticate)
	sessions.POST("", h.Sessions.Start)
	sessions.POST("/reserve", h.Sessions.Reserve)
	sessions.GET("", h.Sessions.List)
	sessions.GET("/:id", h.Sessions.GetByID)
	sessions.POST("/:id/start", h.Sessions.StartReserved)
	sessions.POST("/:id/end", h.Sessions.End)
	sessions.POST("/:id/force-end", g.RequireAdmin, h.Sessions.ForceEnd)
	sessions.POST("/:id/store-charges", h.Sessions.AddStoreCharge)
	sessions.POST("/:id/settle", h.Sessions.Settle)
	r.Register(sessions)

	members := NewDomainGroup("members", "/members").Use(g.Authenticate)
	members.POST("", h.Members.Register)
	members.GET("", h.Members.List)
	members.GET("/:id", h.Members.GetByID)
	wallet := members.Group("wallet", "/:id/wallet")
	wallet.GET("", h.Members.GetWallet)
	wallet.POST("/credit", h.Members.Credit)
	wallet.POST("/debit", g.RequireAdmin, h.Members.Debit)
	wallet.GET("/transactions", h.Members.ListTransactions)
	r.Register(members)

	affiliates := NewDomainGroup("affiliates", "/affiliates").Use(g.Authenticate)
	affiliates.POST("", g.RequireAdmin, h.Affiliates.Create)
	affiliates.GET("", h.Affiliates.List)
	affiliates.GET("/:id", h.Affiliates.GetByID)
	affiliates.GET("/:id/earnings", h.Affiliates.ListEarnings)
	r.Register(affiliates)

	r.Setup()
	return r
}
