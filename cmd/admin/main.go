package main

import (
	"flag"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/codewithprince01/CoffeeBeat/internal/config"
	"github.com/codewithprince01/CoffeeBeat/internal/logger"
	"github.com/codewithprince01/CoffeeBeat/internal/server"
)

func main() {
	confDir := flag.String("conf", ".", "directory containing config.yaml")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger.Init(*debug)

	cfg, err := config.Load(*confDir)
	if err != nil {
		zap.L().Fatal("failed to load config", zap.Error(err))
	}

	app := iris.New()
	server.RegisterAdminRoutes(app, cfg)

	addr := cfg.AdminServer.Addr()
	zap.L().Info("admin server listening", zap.String("addr", addr))
	if err := app.Run(iris.Addr(addr)); err != nil {
		zap.L().Fatal("failed to run admin server", zap.Error(err))
	}
}
