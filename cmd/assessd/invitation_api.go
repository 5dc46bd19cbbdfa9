package main

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trustform/assessd/internal/model"
	"github.com/trustform/assessd/internal/notify"
)

func invitationBody(inv *model.Invitation, o notify.Outcome) fiber.Map {
	return fiber.Map{"invitation": inv.DTO(), "notification": o}
}

func postInvitationHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		dto := new(model.InvitationPostDTO)
		if err := parseBody(ctx, dto); err != nil {
			return err
		}

		a, err := app.store.GetAssessment(dto.AssessmentID)
		if err != nil {
			return err
		}

		if err := checkOrg(ctx, a.OrganizationID, "assessment", a.ID); err != nil {
			return err
		}

		inv, o, err := app.invitations.Create(ctx.UserContext(), dto)
		if err != nil {
			return err
		}

		return ctx.Status(fiber.StatusCreated).JSON(invitationBody(inv, o))
	}
}

func getInvitationsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		a, err := ownAssessment(app, ctx)
		if err != nil {
			return err
		}

		res, err := app.invitations.List(a.ID)
		if err != nil {
			return err
		}

		return ctx.JSON(model.DTOList(res))
	}
}

func resendInvitationHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := idParam(ctx, "id")
		if err != nil {
			return err
		}

		inv, err := app.invitations.Get(id)
		if err != nil {
			return err
		}

		a, err := app.store.GetAssessment(inv.AssessmentID)
		if err != nil {
			return err
		}

		if err := checkOrg(ctx, a.OrganizationID, "invitation", id); err != nil {
			return err
		}

		inv, o, err := app.invitations.Resend(ctx.UserContext(), id)
		if err != nil {
			return err
		}

		return ctx.JSON(invitationBody(inv, o))
	}
}

func getInvitationByTokenHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		inv, err := app.invitations.ByToken(ctx.Params("token"))
		if err != nil {
			return err
		}

		return ctx.JSON(inv.DTO())
	}
}

func acceptInvitationHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		inv, err := app.invitations.Accept(ctx.Params("token"))
		if err != nil {
			return err
		}

		return ctx.JSON(inv.DTO())
	}
}

func declineInvitationHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		var body struct {
			Reason string `json:"reason"`
		}

		if len(ctx.Body()) > 0 {
			if err := parseBody(ctx, &body); err != nil {
				return err
			}
		}

		inv, err := app.invitations.Decline(ctx.Params("token"), body.Reason)
		if err != nil {
			return err
		}

		return ctx.JSON(inv.DTO())
	}
}
