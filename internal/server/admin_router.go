package server

import (
	"strconv"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/codewithprince01/CoffeeBeat/internal/auth"
	"github.com/codewithprince01/CoffeeBeat/internal/config"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/order"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/product"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/user"
	"github.com/codewithprince01/CoffeeBeat/internal/infra/redis"
	"github.com/codewithprince01/CoffeeBeat/internal/middleware"
	"github.com/codewithprince01/CoffeeBeat/internal/repository/mysql"
	"github.com/codewithprince01/CoffeeBeat/internal/service"
)

// RegisterAdminRoutes 注册后台管理端的 HTTP 路由
// 端口通常是 8081，与顾客端服务分离。
func RegisterAdminRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	publisher := newPublisher(&cfg.RabbitMQ)

	// 仓储与服务
	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	bookingRepo := mysql.NewBookingRepository(db)

	userSvc := service.NewUserService(userRepo, &cfg.JWT)
	productSvc := service.NewProductService(productRepo)
	inventorySvc := service.NewInventoryService(productRepo)
	orderSvc := service.NewOrderService(orderRepo, userRepo, inventorySvc, publisher)
	bookingSvc := service.NewBookingService(bookingRepo, time.Duration(cfg.Booking.PendingTTLMinutes)*time.Minute)

	ring := auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring, time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)

	app.Get("/api/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	// 登录拿 token 后才可访问管理接口
	app.Post("/api/login", func(ctx iris.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		token, u, err := userSvc.Login(ctx.Request().Context(), req.Email, req.Password)
		if err != nil || u.Role != user.RoleAdmin {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "bad credentials"})
			return
		}
		ok(ctx, iris.Map{"token": token, "name": u.Name})
	})

	api := app.Party("/api", middleware.JWTAuth(&cfg.JWT, tokenCache), middleware.RequireAdmin())

	// ---------- 商品管理 ----------

	// 商品列表（含下架）
	api.Get("/products", func(ctx iris.Context) {
		list, err := productSvc.ListAll(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// 低库存预警
	api.Get("/products/low-stock", func(ctx iris.Context) {
		list, err := productSvc.ListLowStock(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// 售罄列表
	api.Get("/products/out-of-stock", func(ctx iris.Context) {
		list, err := productSvc.ListOutOfStock(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// 上架新商品
	api.Post("/products", func(ctx iris.Context) {
		var req productRequest
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		p := &product.Product{Active: true, LowStockThreshold: 5}
		req.applyTo(p)
		if err := productSvc.Create(ctx.Request().Context(), p); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, p)
	})

	// 更新商品
	api.Put("/products/{id:string}", func(ctx iris.Context) {
		p, err := productSvc.GetByID(ctx.Request().Context(), ctx.Params().GetString("id"))
		if err != nil {
			fail(ctx, err)
			return
		}
		var req productRequest
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		req.applyTo(p)
		if err := productSvc.Update(ctx.Request().Context(), p); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, p)
	})

	// 上架/下架
	api.Post("/products/{id:string}/active", func(ctx iris.Context) {
		var req struct {
			Active bool `json:"active"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		p, err := productSvc.SetActive(ctx.Request().Context(), ctx.Params().GetString("id"), req.Active)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, p)
	})

	// 补货
	api.Post("/products/{id:string}/restock", func(ctx iris.Context) {
		var req struct {
			Quantity int64 `json:"quantity"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		p, err := productSvc.Restock(ctx.Request().Context(), ctx.Params().GetString("id"), req.Quantity)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, p)
	})

	// ---------- 订单管理 ----------

	// 最近订单
	api.Get("/orders", func(ctx iris.Context) {
		limitStr := ctx.URLParamDefault("limit", "20")
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			limit = 20
		}
		list, err := orderSvc.ListRecent(ctx.Request().Context(), limit)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// 今日订单
	api.Get("/orders/today", func(ctx iris.Context) {
		list, err := orderSvc.TodayOrders(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	api.Get("/orders/needing-chef", func(ctx iris.Context) {
		list, err := orderSvc.NeedingChef(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	api.Get("/orders/needing-waiter", func(ctx iris.Context) {
		list, err := orderSvc.NeedingWaiter(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	api.Get("/orders/{id:string}", func(ctx iris.Context) {
		o, err := orderSvc.GetByID(ctx.Request().Context(), ctx.Params().GetString("id"))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, o)
	})

	// 管理员直接驱动迁移
	api.Put("/orders/{id:string}/status", func(ctx iris.Context) {
		var req struct {
			Status   string `json:"status"`
			ChefID   string `json:"chefId"`
			WaiterID string `json:"waiterId"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		target, valid := order.ParseStatus(req.Status)
		if !valid {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": "unknown status: " + req.Status})
			return
		}
		actor := service.Actor{ID: middleware.ActorID(ctx), Role: user.RoleAdmin}
		o, err := orderSvc.UpdateStatus(ctx.Request().Context(), actor, ctx.Params().GetString("id"), target, req.ChefID, req.WaiterID)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, o)
	})

	api.Post("/orders/{id:string}/assign-chef", func(ctx iris.Context) {
		var req struct {
			ChefID string `json:"chefId"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		o, err := orderSvc.AssignToChef(ctx.Request().Context(), ctx.Params().GetString("id"), req.ChefID)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, o)
	})

	api.Post("/orders/{id:string}/assign-waiter", func(ctx iris.Context) {
		var req struct {
			WaiterID string `json:"waiterId"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		o, err := orderSvc.AssignToWaiter(ctx.Request().Context(), ctx.Params().GetString("id"), req.WaiterID)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, o)
	})

	// 仪表盘统计
	api.Get("/stats", func(ctx iris.Context) {
		stats, err := orderSvc.GetStats(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		activeProducts, err := productSvc.CountActive(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{"orders": stats, "activeProducts": activeProducts})
	})

	// 运行监控
	api.Get("/monitor", func(ctx iris.Context) {
		ok(ctx, service.GetMonitor().GetStats())
	})

	// ---------- 用户管理 ----------

	api.Get("/users", func(ctx iris.Context) {
		roleStr := ctx.URLParam("role")
		var list []*user.User
		var err error
		if roleStr != "" {
			list, err = userSvc.ListByRole(ctx.Request().Context(), user.Role(roleStr))
		} else {
			list, err = userSvc.ListAll(ctx.Request().Context())
		}
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// 创建员工账号
	api.Post("/users", func(ctx iris.Context) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		u, err := userSvc.CreateWithRole(ctx.Request().Context(), req.Name, req.Email, req.Password, user.Role(req.Role))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{"id": u.ID, "name": u.Name, "email": u.Email, "role": u.Role})
	})

	// 指定用户订单
	api.Get("/users/{id:string}/orders", func(ctx iris.Context) {
		list, err := orderSvc.ListByUser(ctx.Request().Context(), ctx.Params().GetString("id"))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// ---------- 订座管理 ----------

	api.Get("/bookings", func(ctx iris.Context) {
		list, err := bookingSvc.ListAll(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	api.Post("/bookings/{id:string}/confirm", func(ctx iris.Context) {
		b, err := bookingSvc.Confirm(ctx.Request().Context(), ctx.Params().GetString("id"))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, b)
	})

	api.Post("/bookings/{id:string}/cancel", func(ctx iris.Context) {
		actor := service.Actor{ID: middleware.ActorID(ctx), Role: user.RoleAdmin}
		b, err := bookingSvc.Cancel(ctx.Request().Context(), actor, ctx.Params().GetString("id"))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, b)
	})
}

// ---- 辅助结构与函数 ----

type productRequest struct {
	Name              string `json:"name"`
	Slug              string `json:"slug"`
	Description       string `json:"description"`
	Price             int64  `json:"price"`
	Stock             int64  `json:"stock"`
	Category          string `json:"category"`
	ImageURL          string `json:"imageUrl"`
	LowStockThreshold int64  `json:"lowStockThreshold"`
}

func (r *productRequest) applyTo(p *product.Product) {
	if r.Name != "" {
		p.Name = r.Name
	}
	if r.Slug != "" {
		p.Slug = r.Slug
	}
	if r.Description != "" {
		p.Description = r.Description
	}
	if r.Price > 0 {
		p.Price = r.Price
	}
	if r.Stock > 0 {
		p.Stock = r.Stock
	}
	if r.Category != "" {
		p.Category = r.Category
	}
	if r.ImageURL != "" {
		p.ImageURL = r.ImageURL
	}
	if r.LowStockThreshold > 0 {
		p.LowStockThreshold = r.LowStockThreshold
	}
}
