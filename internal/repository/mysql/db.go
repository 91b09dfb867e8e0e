package mysql

import (
	"errors"
	"sync"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/codewithprince01/CoffeeBeat/internal/config"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/booking"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/order"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/product"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/user"
	"github.com/codewithprince01/CoffeeBeat/internal/repository"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Init 初始化全局 GORM 实例并自动迁移表结构
func Init(cfg *config.MySQLConfig) *gorm.DB {
	once.Do(func() {
		var err error
		db, err = gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
		if err != nil {
			zap.L().Fatal("failed to connect mysql", zap.Error(err))
		}

		if err = db.AutoMigrate(&user.User{}, &product.Product{}, &order.Order{}, &booking.Booking{}); err != nil {
			zap.L().Fatal("auto migrate failed", zap.Error(err))
		}
	})
	return db
}

// DB 获取全局 DB
func DB() *gorm.DB {
	return db
}

// translate 把 gorm 的未命中错误统一换成仓储层错误
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	return err
}
