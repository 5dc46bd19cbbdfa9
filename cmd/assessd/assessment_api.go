package main

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/trustform/assessd/internal/fault"
	"github.com/trustform/assessd/internal/model"
	"github.com/trustform/assessd/internal/submission"
)

// listOrg is the organization filter for listings: staff see everything unless they ask for one.
func listOrg(ctx *fiber.Ctx) string {
	if Claims(ctx).HasRole(RoleStaff...) {
		return ctx.Query("org")
	}

	return Claims(ctx).Org
}

func postProjectHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		dto := new(model.ProjectPostDTO)
		if err := parseBody(ctx, dto); err != nil {
			return err
		}

		dto.OrganizationID = Org(ctx)
		dto.CreatedBy = User(ctx)

		p, err := app.store.CreateProject(dto)
		if err != nil {
			return err
		}

		return ctx.Status(fiber.StatusCreated).JSON(p.DTO())
	}
}

func getProjectsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		res, err := app.store.ListProjects(listOrg(ctx))
		if err != nil {
			return err
		}

		return ctx.JSON(model.DTOList(res))
	}
}

func getProjectHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := idParam(ctx, "id")
		if err != nil {
			return err
		}

		p, err := app.store.GetProject(id)
		if err != nil {
			return err
		}

		if err := checkOrg(ctx, p.OrganizationID, "project", id); err != nil {
			return err
		}

		return ctx.JSON(p.DTO())
	}
}

func postAssessmentHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		dto := new(model.AssessmentPostDTO)
		if err := parseBody(ctx, dto); err != nil {
			return err
		}

		dto.OrganizationID = Org(ctx)

		a, err := app.store.CreateAssessment(dto)
		if err != nil {
			return err
		}

		return ctx.Status(fiber.StatusCreated).JSON(a.DTO())
	}
}

func getAssessmentsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		f := model.AssessmentFilter{
			OrganizationID: listOrg(ctx),
			Status:         model.AssessmentStatus(ctx.Query("status")),
		}

		if s := ctx.Query("project_id"); s != "" {
			pid, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return fault.BadRequestf("bad project_id %q", s)
			}

			f.ProjectID = uint(pid)
		}

		res, err := app.store.ListAssessments(f)
		if err != nil {
			return err
		}

		return ctx.JSON(model.DTOList(res))
	}
}

// ownAssessment loads the assessment named by the :id parameter if the caller may see it.
func ownAssessment(app *App, ctx *fiber.Ctx) (*model.Assessment, error) {
	id, err := idParam(ctx, "id")
	if err != nil {
		return nil, err
	}

	a, err := app.store.GetAssessment(id)
	if err != nil {
		return nil, err
	}

	if err := checkOrg(ctx, a.OrganizationID, "assessment", id); err != nil {
		return nil, err
	}

	return a, nil
}

func getAssessmentHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		a, err := ownAssessment(app, ctx)
		if err != nil {
			return err
		}

		return ctx.JSON(a.DTO())
	}
}

func startAssessmentHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		a, err := ownAssessment(app, ctx)
		if err != nil {
			return err
		}

		if a, err = app.store.StartAssessment(a.ID); err != nil {
			return err
		}

		return ctx.JSON(a.DTO())
	}
}

func resultBody(res *submission.Result) fiber.Map {
	m := fiber.Map{"assessment": res.Assessment.DTO()}

	if res.Score != nil {
		m["score"] = res.Score.DTO()
	}

	if res.Notification != nil {
		m["notification"] = res.Notification
	}

	return m
}

func scoringResponse(ctx *fiber.Ctx, res *submission.Result, err error) error {
	if err == nil {
		return ctx.JSON(resultBody(res))
	}

	if res == nil {
		return err
	}

	// the assessment stays submitted, so the caller gets its state along with the error
	body := resultBody(res)
	for k, v := range errorBody(err) {
		body[k] = v
	}

	return ctx.Status(fault.Status(err)).JSON(body)
}

func submitAssessmentHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		a, err := ownAssessment(app, ctx)
		if err != nil {
			return err
		}

		res, err := app.orchestrator.Submit(ctx.UserContext(), a.ID)

		return scoringResponse(ctx, res, err)
	}
}

func rescoreAssessmentHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		a, err := ownAssessment(app, ctx)
		if err != nil {
			return err
		}

		res, err := app.orchestrator.Rescore(ctx.UserContext(), a.ID)

		return scoringResponse(ctx, res, err)
	}
}

func getScoresHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		a, err := ownAssessment(app, ctx)
		if err != nil {
			return err
		}

		s, err := app.orchestrator.Scores(a.ID)
		if err != nil {
			return err
		}

		return ctx.JSON(s.DTO())
	}
}

func finalizeAssessmentHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := idParam(ctx, "id")
		if err != nil {
			return err
		}

		dto := new(model.FinalizeDTO)
		if err := parseBody(ctx, dto); err != nil {
			return err
		}

		a, err := app.store.Finalize(id, dto)
		if err != nil {
			return err
		}

		return ctx.JSON(a.DTO())
	}
}

func postRespondentHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		a, err := ownAssessment(app, ctx)
		if err != nil {
			return err
		}

		dto := new(model.RespondentPostDTO)
		if err := parseBody(ctx, dto); err != nil {
			return err
		}

		r, err := app.store.AddRespondent(a.ID, dto)
		if err != nil {
			return err
		}

		return ctx.Status(fiber.StatusCreated).JSON(r.DTO())
	}
}

func getRespondentsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		a, err := ownAssessment(app, ctx)
		if err != nil {
			return err
		}

		res, err := app.store.ListRespondents(a.ID)
		if err != nil {
			return err
		}

		return ctx.JSON(model.DTOList(res))
	}
}
