package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/codewithprince01/CoffeeBeat/internal/auth"
	"github.com/codewithprince01/CoffeeBeat/internal/config"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/order"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/product"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/user"
	"github.com/codewithprince01/CoffeeBeat/internal/infra/mq"
	"github.com/codewithprince01/CoffeeBeat/internal/infra/redis"
	"github.com/codewithprince01/CoffeeBeat/internal/middleware"
	"github.com/codewithprince01/CoffeeBeat/internal/notify"
	"github.com/codewithprince01/CoffeeBeat/internal/repository/mysql"
	"github.com/codewithprince01/CoffeeBeat/internal/service"
)

// newPublisher MQ 可用时走 topic exchange，关闭时退化为进程内 Hub
func newPublisher(cfg *config.RabbitMQConfig) notify.Publisher {
	if cfg.Disabled {
		zap.L().Info("rabbitmq disabled, using in-process hub")
		return notify.NewHub()
	}
	conn := mq.Init(cfg)
	pub, err := notify.NewRabbitPublisher(conn, cfg.Exchange)
	if err != nil {
		zap.L().Fatal("failed to create order event publisher", zap.Error(err))
	}
	return pub
}

// RegisterRoutes 注册顾客/员工端的 HTTP 路由
func RegisterRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)

	// 事件同时进 Hub（本进程 SSE 推送）和 MQ（跨进程消费）
	hub := notify.NewHub()
	var publisher notify.Publisher = hub
	if !cfg.RabbitMQ.Disabled {
		publisher = notify.Fanout{newPublisher(&cfg.RabbitMQ), hub}
	}

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

	// 后台清扫过期订座
	go bookingSvc.RunSweeper(context.Background(), time.Duration(cfg.Booking.SweepIntervalSeconds)*time.Second)

	ring := auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring, time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)

	api := app.Party("/api")

	// 健康检查
	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	// 注册 / 登录
	api.Post("/register", func(ctx iris.Context) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		u, err := userSvc.Register(ctx.Request().Context(), req.Name, req.Email, req.Password)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{"id": u.ID, "name": u.Name, "email": u.Email, "role": u.Role})
	})

	api.Post("/login", func(ctx iris.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		token, u, err := userSvc.Login(ctx.Request().Context(), req.Email, req.Password)
		if err != nil {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "bad credentials"})
			return
		}
		ok(ctx, iris.Map{"token": token, "role": u.Role, "name": u.Name})
	})

	// 菜单是公开的，点单前不需要登录
	api.Get("/menu", func(ctx iris.Context) {
		category := ctx.URLParam("category")
		var list []*product.Product
		var err error
		if category != "" {
			list, err = productSvc.ListByCategory(ctx.Request().Context(), category)
		} else {
			list, err = productSvc.ListActive(ctx.Request().Context())
		}
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	api.Get("/menu/{slug:string}", func(ctx iris.Context) {
		p, err := productSvc.GetBySlug(ctx.Request().Context(), ctx.Params().GetString("slug"))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, p)
	})

	// 需要登录的接口
	authAPI := api.Party("/", middleware.JWTAuth(&cfg.JWT, tokenCache))

	authAPI.Get("/me", func(ctx iris.Context) {
		u, err := userSvc.GetByID(ctx.Request().Context(), middleware.ActorID(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{"id": u.ID, "name": u.Name, "email": u.Email, "role": u.Role})
	})

	// 下单
	authAPI.Post("/orders", middleware.OrderRateLimit(), func(ctx iris.Context) {
		var req struct {
			Items     []service.CreateItem `json:"items"`
			BookingID string               `json:"bookingId"`
			Notes     string               `json:"notes"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		o, err := orderSvc.CreateOrder(ctx.Request().Context(), middleware.ActorID(ctx), req.Items, req.BookingID, req.Notes)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, o)
	})

	// 自己的订单
	authAPI.Get("/orders", func(ctx iris.Context) {
		list, err := orderSvc.ListByUser(ctx.Request().Context(), middleware.ActorID(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	authAPI.Get("/orders/{id:string}", func(ctx iris.Context) {
		// 普通读只对管理员和订单所有者开放
		actor := service.Actor{ID: middleware.ActorID(ctx), Role: middleware.ActorRole(ctx)}
		o, err := orderSvc.GetByIDFor(ctx.Request().Context(), actor, ctx.Params().GetString("id"))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, o)
	})

	// 驱动状态迁移（角色判定在服务层）
	authAPI.Put("/orders/{id:string}/status", func(ctx iris.Context) {
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
		actor := service.Actor{ID: middleware.ActorID(ctx), Role: middleware.ActorRole(ctx)}
		o, err := orderSvc.UpdateStatus(ctx.Request().Context(), actor, ctx.Params().GetString("id"), target, req.ChefID, req.WaiterID)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, o)
	})

	authAPI.Post("/orders/{id:string}/cancel", func(ctx iris.Context) {
		actor := service.Actor{ID: middleware.ActorID(ctx), Role: middleware.ActorRole(ctx)}
		o, err := orderSvc.CancelOrder(ctx.Request().Context(), actor, ctx.Params().GetString("id"))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, o)
	})

	// 订座
	authAPI.Post("/bookings", func(ctx iris.Context) {
		var req struct {
			TableNumber int       `json:"tableNumber"`
			PartySize   int       `json:"partySize"`
			StartsAt    time.Time `json:"startsAt"`
			EndsAt      time.Time `json:"endsAt"`
			Notes       string    `json:"notes"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		b, err := bookingSvc.Create(ctx.Request().Context(), middleware.ActorID(ctx), req.TableNumber, req.PartySize, req.StartsAt, req.EndsAt, req.Notes)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, b)
	})

	authAPI.Get("/bookings", func(ctx iris.Context) {
		list, err := bookingSvc.ListByUser(ctx.Request().Context(), middleware.ActorID(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	authAPI.Post("/bookings/{id:string}/cancel", func(ctx iris.Context) {
		actor := service.Actor{ID: middleware.ActorID(ctx), Role: middleware.ActorRole(ctx)}
		b, err := bookingSvc.Cancel(ctx.Request().Context(), actor, ctx.Params().GetString("id"))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, b)
	})

	// ---------- 员工工作台 ----------

	staffAPI := authAPI.Party("/staff", middleware.RequireStaff())

	// 后厨接单队列：已确认且无人认领
	staffAPI.Get("/orders/needing-chef", func(ctx iris.Context) {
		list, err := orderSvc.NeedingChef(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// 前厅传菜队列：出餐完成且无人认领
	staffAPI.Get("/orders/needing-waiter", func(ctx iris.Context) {
		list, err := orderSvc.NeedingWaiter(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// 自己名下的订单
	staffAPI.Get("/orders/mine", func(ctx iris.Context) {
		actorID := middleware.ActorID(ctx)
		var list []*order.Order
		var err error
		switch middleware.ActorRole(ctx) {
		case user.RoleChef:
			list, err = orderSvc.ListForChef(ctx.Request().Context(), actorID)
		case user.RoleWaiter:
			list, err = orderSvc.ListForWaiter(ctx.Request().Context(), actorID)
		default:
			list, err = orderSvc.TodayOrders(ctx.Request().Context())
		}
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// 指派厨师（订单进入制作中）
	staffAPI.Post("/orders/{id:string}/assign-chef", func(ctx iris.Context) {
		var req struct {
			ChefID string `json:"chefId"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		if req.ChefID == "" {
			req.ChefID = middleware.ActorID(ctx)
		}
		o, err := orderSvc.AssignToChef(ctx.Request().Context(), ctx.Params().GetString("id"), req.ChefID)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, o)
	})

	// 指派服务员（订单进入待上桌）
	staffAPI.Post("/orders/{id:string}/assign-waiter", func(ctx iris.Context) {
		var req struct {
			WaiterID string `json:"waiterId"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		if req.WaiterID == "" {
			req.WaiterID = middleware.ActorID(ctx)
		}
		o, err := orderSvc.AssignToWaiter(ctx.Request().Context(), ctx.Params().GetString("id"), req.WaiterID)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, o)
	})

	// 实时订单看板：SSE 推送本进程产生的订单事件
	staffAPI.Get("/events", func(ctx iris.Context) {
		flusher, okFlush := ctx.ResponseWriter().Flusher()
		if !okFlush {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": "streaming unsupported"})
			return
		}
		ctx.ContentType("text/event-stream")
		ctx.Header("Cache-Control", "no-cache")
		ctx.Header("Connection", "keep-alive")

		events, cancel := hub.Subscribe(32)
		defer cancel()
		for {
			select {
			case <-ctx.Request().Context().Done():
				return
			case ev, open := <-events:
				if !open {
					return
				}
				body, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				fmt.Fprintf(ctx.ResponseWriter(), "event: %s\ndata: %s\n\n", ev.Topic, body)
				flusher.Flush()
			}
		}
	})

	// 确认订座
	staffAPI.Post("/bookings/{id:string}/confirm", func(ctx iris.Context) {
		b, err := bookingSvc.Confirm(ctx.Request().Context(), ctx.Params().GetString("id"))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, b)
	})
}
