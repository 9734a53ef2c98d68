// Package http wires the gin router and runs the HTTP server.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
	"github.com/sku-codemong/codemong-Backend-02/internal/logging"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/http/handler"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/http/middleware"
)

// NewRouter wires routes and middleware.
func NewRouter(h *handler.Handler, guard *middleware.Guard, log logging.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	headerOnly := guard.RequireAuth(middleware.GuardOptions{})
	headerOrCookie := guard.RequireAuth(middleware.GuardOptions{AllowCookie: true, CookieName: common.AccessCookieName})
	optional := guard.OptionalAuth(middleware.GuardOptions{AllowCookie: true, CookieName: common.AccessCookieName})
	self := middleware.RequireSelf(middleware.SelfOptions{From: middleware.FromParams, Key: "userId"})

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/refresh", h.Refresh)
			authGroup.POST("/logout", optional, h.Logout)
			authGroup.GET("/protected/ping", headerOnly, h.Ping)
		}

		me := api.Group("/user", headerOrCookie)
		{
			me.GET("/me", h.GetMe)
			me.PATCH("/me", h.UpdateMe)
		}

		users := api.Group("/users")
		{
			users.GET("/:userId", optional, h.GetUser)
			users.POST("/:userId/profile-image/upload-url", headerOrCookie, self, h.ProfileImageUploadURL)
			users.PUT("/:userId/profile-image", headerOrCookie, self, h.CommitProfileImage)
		}

		friends := api.Group("/friends", headerOrCookie)
		{
			friends.POST("/requests", h.SendFriendRequest)
			friends.GET("/requests/incoming", h.IncomingFriendRequests)
			friends.PATCH("/requests/:id", h.RespondFriendRequest)
		}
	}

	return r
}
