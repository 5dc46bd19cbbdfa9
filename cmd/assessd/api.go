package main

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trustform/assessd/internal/fault"
	"github.com/trustform/assessd/pkg/log"
)

type API struct {
	f    *fiber.App
	addr string
}

func NewAPI(app *App, addr string) *API {
	api := &API{addr: addr}

	api.f = fiber.New(fiber.Config{
		EnablePrintRoutes:     false,
		DisableStartupMessage: true,
		BodyLimit:             64 * 1024 * 1024,
		ErrorHandler:          getErrorHandler(app),
	})

	api.f.Use(log.NewFiberLogger(&log.LoggerConfig{Name: "api", UserGetter: User, DoMetrics: true}))
	api.f.Use(recover.New())

	api.f.Get("/metrics", getMetricsHandler())
	api.f.Get("/ws", getWsAuth(app), getWsHandler(app))

	api.f.Put("/storage/*", putBlobHandler(app))
	api.f.Get("/storage/*", getBlobHandler(app))

	v1 := api.f.Group("/api/v1")

	// invitation links and the respondent portal work without an identity token
	v1.Get("/invitations/token/:token", getInvitationByTokenHandler(app))
	v1.Post("/invitations/token/:token/accept", acceptInvitationHandler(app))
	v1.Post("/invitations/token/:token/decline", declineInvitationHandler(app))

	v1.Get("/respondents/:id", getRespondentHandler(app))
	v1.Get("/respondents/:id/responses", getResponsesHandler(app))
	v1.Post("/responses", postResponseHandler(app))
	v1.Post("/responses/:id/submit", submitResponseHandler(app))
	v1.Post("/evidence/upload-url", getUploadURLHandler(app))
	v1.Post("/evidence", postEvidenceHandler(app))

	authed := v1.Group("", getAuthMiddleware(app))

	authed.Post("/projects", postProjectHandler(app))
	authed.Get("/projects", getProjectsHandler(app))
	authed.Get("/projects/:id", getProjectHandler(app))

	authed.Post("/assessments", postAssessmentHandler(app))
	authed.Get("/assessments", getAssessmentsHandler(app))
	authed.Get("/assessments/:id", getAssessmentHandler(app))
	authed.Post("/assessments/:id/start", startAssessmentHandler(app))
	authed.Post("/assessments/:id/submit", submitAssessmentHandler(app))
	authed.Post("/assessments/:id/rescore", rescoreAssessmentHandler(app))
	authed.Get("/assessments/:id/scores", getScoresHandler(app))
	authed.Post("/assessments/:id/finalize", requireRole(RoleStaff...), finalizeAssessmentHandler(app))

	authed.Post("/assessments/:id/respondents", postRespondentHandler(app))
	authed.Get("/assessments/:id/respondents", getRespondentsHandler(app))

	authed.Post("/invitations", postInvitationHandler(app))
	authed.Get("/assessments/:id/invitations", getInvitationsHandler(app))
	authed.Post("/invitations/:id/resend", resendInvitationHandler(app))

	authed.Get("/evidence/:id", getEvidenceHandler(app))
	authed.Get("/responses/:id/evidence", getResponseEvidenceHandler(app))
	authed.Post("/evidence/:id/scan", requireRole(RoleStaff...), scanEvidenceHandler(app))
	authed.Post("/evidence/:id/verify", requireRole(RoleStaff...), verifyEvidenceHandler(app))

	authed.Get("/credits/:type", getBalanceHandler(app))
	authed.Get("/credits/:type/history", getHistoryHandler(app))
	authed.Post("/credits", requireRole(RoleAdmin), postCreditsHandler(app))

	return api
}

func (api *API) Address() string {
	return api.addr
}

func (api *API) Listen() error {
	return api.f.Listen(api.addr)
}

func (api *API) Shutdown() error {
	return api.f.Shutdown()
}

func getMetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{DisableCompression: true},
	))
}

func getErrorHandler(app *App) fiber.ErrorHandler {
	logger := app.logger.With("logger", "api")

	return func(ctx *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		code := fault.Status(err)

		if code == fiber.StatusInternalServerError {
			logger.Error("request failed", slog.String("path", ctx.Path()), slog.Any("error", err))
		}

		return ctx.Status(code).JSON(errorBody(err))
	}
}

func errorBody(err error) fiber.Map {
	return fiber.Map{"error": err.Error(), "kind": fault.Kind(err)}
}

func idParam(ctx *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fault.BadRequestf("bad %s %q", name, ctx.Params(name))
	}

	return uint(id), nil
}

func parseBody(ctx *fiber.Ctx, v any) error {
	if err := ctx.BodyParser(v); err != nil {
		return fault.BadRequestf("invalid body: %s", err.Error())
	}

	return nil
}
