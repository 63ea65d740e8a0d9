package FiberConfig

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"

	"Souq/Controllers"
	"Souq/CronJobs"
	"Souq/Models"
	"Souq/Reports"
	"Souq/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, tracker *CronJobs.RepaymentTracker) {
	// Initialize handlers
	vendorController := Controllers.NewVendorController(db)
	creditController := Controllers.NewCreditController(db)
	policyController := Controllers.NewPolicyController(db)
	orderController := Controllers.NewOrderController(db)
	notificationController := Controllers.NewNotificationController(db)
	analyticsController := Controllers.NewAnalyticsController(db)
	statementController := Reports.NewStatementController(db)

	// API group
	api := app.Group("/api")

	// Auth routes
	app.Post("/api/Register", Controllers.Register)
	app.Post("/api/Login", Controllers.Login)
	app.Get("/api/User", middleware.Verify(1), Controllers.CurrentUser)
	app.Use("/api/Logout", Controllers.Logout)
	app.Post("/api/UpdateToken", middleware.Verify(2), Models.UpdateToken)

	// Vendor routes. The group admits vendors and admins; admin-only
	// mutations carry an extra permission check on the route.
	vendors := api.Group("/vendors", middleware.Verify(2))
	vendors.Get("/", vendorController.GetVendors)
	vendors.Post("/", middleware.Verify(3), vendorController.RegisterVendor)
	vendors.Get("/:id", vendorController.GetVendor)
	vendors.Put("/:id/status", middleware.Verify(3), vendorController.UpdateVendorStatus)
	vendors.Delete("/:id", middleware.Verify(3), vendorController.DeleteVendor)
	vendors.Get("/:id/credit", vendorController.GetVendorCredit)
	vendors.Post("/:id/purchases", creditController.CreatePurchase)
	vendors.Get("/:id/purchases", creditController.GetVendorPurchases)
	vendors.Get("/:id/earnings", orderController.GetVendorEarnings)
	vendors.Get("/:id/notifications", notificationController.GetVendorNotifications)
	vendors.Get("/:id/statement", statementController.GetVendorStatement)
	vendors.Put("/:id/policy", middleware.Verify(3), policyController.UpdateVendorPolicy)

	// Credit purchase routes
	purchases := api.Group("/purchases", middleware.Verify(2))
	purchases.Get("/:id/repayment", creditController.GetRepayment)
	purchases.Post("/:id/repay", creditController.RepayPurchase)

	// Tier policy routes
	policy := api.Group("/policy", middleware.Verify(3))
	policy.Get("/global", policyController.GetGlobalPolicy)
	policy.Put("/global", policyController.UpdateGlobalPolicy)

	// Order routes
	orders := api.Group("/orders", middleware.Verify(1))
	orders.Post("/", orderController.CreateOrder)
	orders.Post("/:id/delivered", middleware.Verify(2), orderController.ConfirmDelivery)

	// Notification routes
	notifications := api.Group("/notifications", middleware.Verify(2))
	notifications.Put("/:id/read", notificationController.MarkNotificationRead)

	// Analytics routes
	analytics := api.Group("/analytics", middleware.Verify(3))
	analytics.Get("/credit-summary", analyticsController.CreditSummary)
	analytics.Get("/monthly", analyticsController.MonthlyActivity)
	analytics.Get("/top-vendors", analyticsController.TopVendors)
	analytics.Get("/recent-activity", analyticsController.RecentActivity)

	// Repayment tracker admin routes
	trackerGroup := api.Group("/tracker", middleware.Verify(3))
	trackerGroup.Post("/sweep", func(ctx *fiber.Ctx) error {
		report, err := tracker.RunManualSweep()
		if err != nil {
			log.Println("Manual sweep failed:", err)
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Sweep failed"})
		}
		return ctx.JSON(report)
	})
	trackerGroup.Put("/schedule", func(ctx *fiber.Ctx) error {
		var body struct {
			Schedule string `json:"schedule"`
		}
		if err := ctx.BodyParser(&body); err != nil || body.Schedule == "" {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule"})
		}
		if err := tracker.UpdateSchedule(body.Schedule); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return ctx.JSON(fiber.Map{"message": "Schedule updated"})
	})
}

func FiberConfig(tracker *CronJobs.RepaymentTracker) {
	fmt.Println("Server Up...")
	app := fiber.New()
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression, // 2
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*", // Allow all origins
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true, // Important for cookies
		MaxAge:           300,  // Max age for preflight requests caching (5 minutes)
	}))

	SetupRoutes(app, Models.DB, tracker)

	app.Listen(":3001")
}
