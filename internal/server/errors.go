package server

import (
	"errors"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/codewithprince01/CoffeeBeat/internal/service"
)

// fail 把业务错误映射为 HTTP 状态码并输出统一错误结构
func fail(ctx iris.Context, err error) {
	code := 500
	switch {
	case errors.Is(err, service.ErrNotFound):
		code = 404
	case errors.Is(err, service.ErrOutOfStock),
		errors.Is(err, service.ErrInactiveProduct),
		errors.Is(err, service.ErrDuplicate):
		code = 409
	case errors.Is(err, service.ErrIllegalTransition),
		errors.Is(err, service.ErrValidation):
		code = 400
	case errors.Is(err, service.ErrForbidden):
		code = 403
	}
	if code == 500 {
		zap.L().Error("request failed", zap.Error(err))
	}
	ctx.StopWithJSON(code, iris.Map{"code": code, "msg": err.Error()})
}

// ok 输出统一成功结构
func ok(ctx iris.Context, data interface{}) {
	ctx.JSON(iris.Map{"code": 0, "data": data})
}
