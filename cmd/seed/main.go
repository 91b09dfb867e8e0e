package main

import (
	"context"
	"flag"

	"go.uber.org/zap"

	"github.com/codewithprince01/CoffeeBeat/internal/config"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/product"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/user"
	"github.com/codewithprince01/CoffeeBeat/internal/logger"
	"github.com/codewithprince01/CoffeeBeat/internal/repository/mysql"
	"github.com/codewithprince01/CoffeeBeat/internal/service"
)

// 初始菜单，价格单位为分
var menu = []product.Product{
	{Name: "Espresso", Slug: "espresso", Description: "Double shot, house blend", Price: 350, Stock: 200, Category: "coffee", Active: true, LowStockThreshold: 20},
	{Name: "Americano", Slug: "americano", Description: "Espresso with hot water", Price: 400, Stock: 200, Category: "coffee", Active: true, LowStockThreshold: 20},
	{Name: "Cappuccino", Slug: "cappuccino", Description: "Espresso, steamed milk, foam", Price: 480, Stock: 150, Category: "coffee", Active: true, LowStockThreshold: 15},
	{Name: "Flat White", Slug: "flat-white", Description: "Ristretto with silky microfoam", Price: 500, Stock: 150, Category: "coffee", Active: true, LowStockThreshold: 15},
	{Name: "Cold Brew", Slug: "cold-brew", Description: "18 hour slow steep", Price: 520, Stock: 80, Category: "coffee", Active: true, LowStockThreshold: 10},
	{Name: "Earl Grey", Slug: "earl-grey", Description: "Loose leaf, bergamot", Price: 380, Stock: 100, Category: "tea", Active: true, LowStockThreshold: 10},
	{Name: "Matcha Latte", Slug: "matcha-latte", Description: "Ceremonial grade matcha", Price: 550, Stock: 90, Category: "tea", Active: true, LowStockThreshold: 10},
	{Name: "Croissant", Slug: "croissant", Description: "Baked every morning", Price: 420, Stock: 60, Category: "pastry", Active: true, LowStockThreshold: 8},
	{Name: "Almond Croissant", Slug: "almond-croissant", Description: "Frangipane filling", Price: 480, Stock: 40, Category: "pastry", Active: true, LowStockThreshold: 8},
	{Name: "Banana Bread", Slug: "banana-bread", Description: "Walnuts, thick slice", Price: 450, Stock: 30, Category: "pastry", Active: true, LowStockThreshold: 5},
	{Name: "Avocado Toast", Slug: "avocado-toast", Description: "Sourdough, chili flakes", Price: 850, Stock: 40, Category: "food", Active: true, LowStockThreshold: 5},
	{Name: "Granola Bowl", Slug: "granola-bowl", Description: "Greek yogurt, seasonal fruit", Price: 780, Stock: 35, Category: "food", Active: true, LowStockThreshold: 5},
}

type seedAccount struct {
	name     string
	email    string
	password string
	role     user.Role
}

var accounts = []seedAccount{
	{"Admin", "admin@coffeebeat.local", "admin123", user.RoleAdmin},
	{"Chef Marco", "chef@coffeebeat.local", "chef123", user.RoleChef},
	{"Waiter Anna", "waiter@coffeebeat.local", "waiter123", user.RoleWaiter},
	{"Demo Customer", "customer@coffeebeat.local", "customer123", user.RoleCustomer},
}

func main() {
	confDir := flag.String("conf", ".", "directory containing config.yaml")
	flag.Parse()

	logger.Init(true)

	cfg, err := config.Load(*confDir)
	if err != nil {
		zap.L().Fatal("failed to load config", zap.Error(err))
	}

	db := mysql.Init(&cfg.MySQL)
	productRepo := mysql.NewProductRepository(db)
	userRepo := mysql.NewUserRepository(db)
	productSvc := service.NewProductService(productRepo)
	userSvc := service.NewUserService(userRepo, &cfg.JWT)

	ctx := context.Background()

	for i := range menu {
		p := menu[i]
		if err := productSvc.Create(ctx, &p); err != nil {
			// 重复执行时 slug 已存在，跳过
			zap.L().Info("skip product", zap.String("slug", p.Slug), zap.Error(err))
			continue
		}
		zap.L().Info("seeded product", zap.String("slug", p.Slug), zap.Int64("stock", p.Stock))
	}

	for _, a := range accounts {
		u, err := userSvc.CreateWithRole(ctx, a.name, a.email, a.password, a.role)
		if err != nil {
			zap.L().Info("skip account", zap.String("email", a.email), zap.Error(err))
			continue
		}
		zap.L().Info("seeded account", zap.String("email", u.Email), zap.String("role", string(u.Role)))
	}

	zap.L().Info("seed finished")
}
