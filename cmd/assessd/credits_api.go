package main

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trustform/assessd/internal/fault"
	"github.com/trustform/assessd/internal/model"
)

const defaultHistoryLimit = 50

func creditTypeParam(ctx *fiber.Ctx) (model.CreditType, error) {
	ct := model.CreditType(ctx.Params("type"))
	if !ct.Valid() {
		return "", fault.BadRequestf("unknown credit type %q", ct)
	}

	return ct, nil
}

func getBalanceHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		ct, err := creditTypeParam(ctx)
		if err != nil {
			return err
		}

		org := Org(ctx)

		b, err := app.ledger.Balance(org, ct)
		if err != nil {
			return err
		}

		return ctx.JSON(&model.BalanceDTO{OrganizationID: org, CreditType: ct, Balance: b})
	}
}

func getHistoryHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		ct, err := creditTypeParam(ctx)
		if err != nil {
			return err
		}

		res, err := app.ledger.History(Org(ctx), ct, ctx.QueryInt("limit", defaultHistoryLimit))
		if err != nil {
			return err
		}

		return ctx.JSON(model.DTOList(res))
	}
}

type creditsPostDTO struct {
	OrganizationID string `json:"organization_id"`
	model.TransactionPostDTO
}

func postCreditsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		dto := new(creditsPostDTO)
		if err := parseBody(ctx, dto); err != nil {
			return err
		}

		if dto.Type == "" {
			dto.Type = model.Purchase
		}

		if dto.Type == model.Consumption {
			return fault.BadRequestf("consumption is recorded by the service only")
		}

		org := dto.OrganizationID
		if org == "" {
			org = Org(ctx)
		}

		b, err := app.ledger.Record(org, dto.CreditType, dto.Amount, dto.Type, dto.Description)
		if err != nil {
			return err
		}

		return ctx.Status(fiber.StatusCreated).JSON(&model.BalanceDTO{OrganizationID: org, CreditType: dto.CreditType, Balance: b})
	}
}
