package middleware

import (
	"strings"

	"github.com/kataras/iris/v12"

	"github.com/codewithprince01/CoffeeBeat/internal/auth"
	"github.com/codewithprince01/CoffeeBeat/internal/config"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/user"
)

// 中间件写入 ctx.Values 的键
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

// JWTAuth 解析 Authorization 头里的 JWT，把身份写入上下文。
// cache 可为 nil（不走 Redis 缓存，每次都解析）。
func JWTAuth(cfg *config.JWTConfig, cache *auth.TokenCache) iris.Handler {
	return func(ctx iris.Context) {
		token := ctx.GetHeader("Authorization")
		token = strings.TrimPrefix(token, "Bearer ")
		if token == "" {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "missing token"})
			return
		}
		var claims *auth.Claims
		if cache != nil {
			if cached, hit, err := cache.Get(ctx.Request().Context(), token); err == nil && hit {
				claims = cached
			}
		}
		if claims == nil {
			parsed, err := auth.ParseToken(cfg, token)
			if err != nil {
				ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "invalid token"})
				return
			}
			claims = parsed
			if cache != nil {
				_ = cache.Set(ctx.Request().Context(), token, claims)
			}
		}
		ctx.Values().Set(CtxUserID, claims.UserID)
		ctx.Values().Set(CtxEmail, claims.Email)
		ctx.Values().Set(CtxRole, string(claims.Role))
		ctx.Next()
	}
}

// ActorRole 读取上下文中的角色
func ActorRole(ctx iris.Context) user.Role {
	return user.Role(ctx.Values().GetString(CtxRole))
}

// ActorID 读取上下文中的用户 ID
func ActorID(ctx iris.Context) string {
	return ctx.Values().GetString(CtxUserID)
}

// RequireStaff 仅员工（厨师/服务员/管理员）可用
func RequireStaff() iris.Handler {
	return func(ctx iris.Context) {
		if !ActorRole(ctx).Staff() {
			ctx.StopWithJSON(403, iris.Map{"code": 403, "msg": "staff only"})
			return
		}
		ctx.Next()
	}
}

// RequireAdmin 仅管理员可用
func RequireAdmin() iris.Handler {
	return func(ctx iris.Context) {
		if ActorRole(ctx) != user.RoleAdmin {
			ctx.StopWithJSON(403, iris.Map{"code": 403, "msg": "admin only"})
			return
		}
		ctx.Next()
	}
}
