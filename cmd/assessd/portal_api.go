package main

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/trustform/assessd/internal/fault"
	"github.com/trustform/assessd/internal/model"
)

func getRespondentHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := idParam(ctx, "id")
		if err != nil {
			return err
		}

		r, err := app.store.GetRespondent(id)
		if err != nil {
			return err
		}

		return ctx.JSON(r.DTO())
	}
}

func getResponsesHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := idParam(ctx, "id")
		if err != nil {
			return err
		}

		if _, err := app.store.GetRespondent(id); err != nil {
			return err
		}

		res, err := app.store.ListResponses(id)
		if err != nil {
			return err
		}

		return ctx.JSON(model.DTOList(res))
	}
}

func postResponseHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		dto := new(model.ResponsePostDTO)
		if err := parseBody(ctx, dto); err != nil {
			return err
		}

		r, created, err := app.store.UpsertResponse(dto)
		if err != nil {
			return err
		}

		if created {
			ctx.Status(fiber.StatusCreated)
		}

		return ctx.JSON(r.DTO())
	}
}

func submitResponseHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := idParam(ctx, "id")
		if err != nil {
			return err
		}

		r, err := app.store.SubmitResponse(id)
		if err != nil {
			return err
		}

		return ctx.JSON(r.DTO())
	}
}

func getUploadURLHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		dto := new(model.UploadSlotRequestDTO)
		if err := parseBody(ctx, dto); err != nil {
			return err
		}

		slot, err := app.store.RequestUploadSlot(dto)
		if err != nil {
			return err
		}

		return ctx.JSON(slot)
	}
}

func postEvidenceHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		dto := new(model.EvidencePostDTO)
		if err := parseBody(ctx, dto); err != nil {
			return err
		}

		e, err := app.store.RecordEvidence(dto)
		if err != nil {
			return err
		}

		return ctx.Status(fiber.StatusCreated).JSON(e.DTO())
	}
}

func evidenceDTO(app *App, e *model.Evidence) *model.EvidenceDTO {
	dto := e.DTO()

	// infected files get no link
	if u, err := app.store.DownloadURL(e); err == nil {
		dto.DownloadURL = u
	}

	return dto
}

// ownResponse checks that the caller may see the response and its evidence.
func ownResponse(app *App, ctx *fiber.Ctx, id uint) error {
	a, err := app.store.ResponseAssessment(id)
	if err != nil {
		return err
	}

	return checkOrg(ctx, a.OrganizationID, "response", id)
}

func getEvidenceHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := idParam(ctx, "id")
		if err != nil {
			return err
		}

		e, err := app.store.GetEvidence(id)
		if err != nil {
			return err
		}

		if err := ownResponse(app, ctx, e.ResponseID); err != nil {
			if errors.Is(err, fault.NotFound) {
				return fault.NotFoundf("evidence %d", id)
			}

			return err
		}

		return ctx.JSON(evidenceDTO(app, e))
	}
}

func getResponseEvidenceHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := idParam(ctx, "id")
		if err != nil {
			return err
		}

		if err := ownResponse(app, ctx, id); err != nil {
			return err
		}

		res, err := app.store.ListEvidence(id)
		if err != nil {
			return err
		}

		dtos := make([]*model.EvidenceDTO, len(res))
		for i, e := range res {
			dtos[i] = evidenceDTO(app, e)
		}

		return ctx.JSON(dtos)
	}
}

func scanEvidenceHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := idParam(ctx, "id")
		if err != nil {
			return err
		}

		var body struct {
			Status model.EvidenceStatus `json:"status"`
		}

		if err := parseBody(ctx, &body); err != nil {
			return err
		}

		e, err := app.store.SetScanStatus(id, body.Status)
		if err != nil {
			return err
		}

		return ctx.JSON(e.DTO())
	}
}

func verifyEvidenceHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := idParam(ctx, "id")
		if err != nil {
			return err
		}

		var body struct {
			Accepted bool `json:"accepted"`
		}

		if err := parseBody(ctx, &body); err != nil {
			return err
		}

		e, err := app.store.VerifyEvidence(id, User(ctx), body.Accepted)
		if err != nil {
			return err
		}

		return ctx.JSON(e.DTO())
	}
}
