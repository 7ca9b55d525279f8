package routes

import (
	"food-marketplace-api/auth"
	"food-marketplace-api/handlers"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler, tokens *auth.TokenService) {
	r.GET("/health", h.Health)

	authRequired := middleware.AuthRequired(tokens)
	role := middleware.RoleRequired

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)

		public.GET("/restaurants", h.ListRestaurants)
		public.GET("/restaurants/:id", h.GetRestaurant)
		public.GET("/restaurants/:id/menu-items", h.GetMenu)
		public.GET("/restaurants/:id/menu-items/:item_id", h.GetMenuItem)

		public.GET("/reviews/:id", h.GetRestaurantReviews)

		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	authed := r.Group("/api")
	authed.Use(authRequired)
	{
		authed.GET("/auth/me", h.GetProfile)
		authed.PUT("/auth/me", h.UpdateProfile)
		authed.POST("/auth/logout", h.Logout)

		authed.GET("/orders/my-orders", h.GetMyOrders)
		authed.GET("/orders/:id", h.GetOrderDetail)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/api")
	customer.Use(authRequired, role(models.RoleUser))
	{
		customer.POST("/orders", h.PlaceOrder)
		customer.PUT("/orders/:id/cancel", h.CancelOrder)

		customer.POST("/reviews", h.CreateReview)
		customer.PUT("/reviews/:id", h.UpdateReview)
		customer.DELETE("/reviews/:id", h.DeleteReview)
	}

	// ── Restaurant owner routes ────────────────────────────────────
	owner := r.Group("/api")
	owner.Use(authRequired, role(models.RoleOwner))
	{
		owner.POST("/restaurants", h.CreateRestaurant)
		owner.GET("/restaurants/mine", h.GetMyRestaurant)
	}

	// ── Owner or admin routes ──────────────────────────────────────
	manager := r.Group("/api")
	manager.Use(authRequired, role(models.RoleOwner, models.RoleAdmin))
	{
		manager.PUT("/restaurants/:id", h.UpdateRestaurant)

		manager.POST("/restaurants/:id/menu-items", h.AddMenuItem)
		manager.PUT("/restaurants/:id/menu-items/:item_id", h.UpdateMenuItem)
		manager.DELETE("/restaurants/:id/menu-items/:item_id", h.DeleteMenuItem)

		manager.GET("/orders/restaurant-orders", h.GetRestaurantOrders)
		manager.PUT("/orders/:id/status", h.UpdateOrderStatus)
	}

	// ── Rider routes ───────────────────────────────────────────────
	rider := r.Group("/api")
	rider.Use(authRequired, role(models.RoleRider))
	{
		rider.GET("/orders/pending", h.GetPendingOrders)
		rider.GET("/orders/my-deliveries", h.GetMyDeliveries)
		rider.POST("/orders/:id/claim", h.ClaimOrder)
		rider.POST("/orders/:id/deliver", h.DeliverOrder)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api")
	admin.Use(authRequired, role(models.RoleAdmin))
	{
		admin.DELETE("/restaurants/:id", h.DeleteRestaurant)
		admin.GET("/admin/users", h.AdminGetAllUsers)
		admin.GET("/admin/restaurants", h.AdminGetAllRestaurants)
		admin.GET("/admin/orders/:id/audit", h.AdminGetOrderAudit)
	}
}
