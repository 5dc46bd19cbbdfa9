package main

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/trustform/assessd/internal/auth"
	"github.com/trustform/assessd/internal/fault"
)

const (
	ClaimsKey = "claims"
)

var (
	RoleAdmin = auth.RoleAdmin
	RoleStaff = []string{auth.RoleAdmin, auth.RoleAnalyst}
)

func getAuthMiddleware(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		token, ok := strings.CutPrefix(ctx.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || token == "" {
			return fault.Unauthorized
		}

		claims, err := auth.Parse(app.config.AuthSecret(), token)
		if err != nil {
			return fault.Unauthorized
		}

		ctx.Locals(ClaimsKey, claims)

		return ctx.Next()
	}
}

// getWsAuth accepts the identity token as a query parameter, browsers can't set headers on websocket upgrade.
func getWsAuth(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		claims, err := auth.Parse(app.config.AuthSecret(), ctx.Query("token"))
		if err != nil {
			return fault.Unauthorized
		}

		ctx.Locals(ClaimsKey, claims)

		return ctx.Next()
	}
}

func requireRole(roles ...string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !Claims(ctx).HasRole(roles...) {
			return fiber.NewError(fiber.StatusForbidden, "forbidden")
		}

		return ctx.Next()
	}
}

func Claims(ctx *fiber.Ctx) *auth.Claims {
	c, _ := ctx.Locals(ClaimsKey).(*auth.Claims)

	return c
}

func User(ctx *fiber.Ctx) string {
	return Claims(ctx).User()
}

// Org is the organization a request acts for. Staff may name another one with ?org=.
func Org(ctx *fiber.Ctx) string {
	c := Claims(ctx)
	if c == nil {
		return ""
	}

	if o := ctx.Query("org"); o != "" && c.HasRole(RoleStaff...) {
		return o
	}

	return c.Org
}

// checkOrg hides objects of other organizations behind NotFound.
func checkOrg(ctx *fiber.Ctx, org string, what string, id uint) error {
	c := Claims(ctx)

	if c.HasRole(RoleStaff...) || (c != nil && c.Org == org) {
		return nil
	}

	return fault.NotFoundf("%s %d", what, id)
}
