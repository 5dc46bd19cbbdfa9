package main

import (
	"bytes"
	"errors"
	"io"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/trustform/assessd/internal/fault"
	"github.com/trustform/assessd/internal/storage"
)

func blobKey(app *App, ctx *fiber.Ctx, method string) (string, error) {
	key, err := url.PathUnescape(ctx.Params("*"))
	if err != nil || key == "" {
		return "", fault.BadRequestf("bad storage key")
	}

	if err := app.signer.Verify(ctx.Query("token"), method, key); err != nil {
		return "", fiber.NewError(fiber.StatusForbidden, err.Error())
	}

	return key, nil
}

func putBlobHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		key, err := blobKey(app, ctx, storage.MethodUpload)
		if err != nil {
			return err
		}

		hash, n, err := app.blobs.Put(key, bytes.NewReader(ctx.Body()))
		if err != nil {
			return err
		}

		ctx.Set(fiber.HeaderETag, `"`+hash+`"`)

		return ctx.JSON(fiber.Map{"storage_key": key, "size": n, "sha256": hash})
	}
}

func getBlobHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		key, err := blobKey(app, ctx, storage.MethodDownload)
		if err != nil {
			return err
		}

		f, err := app.blobs.Open(key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fault.NotFoundf("object %s", key)
			}

			return err
		}

		defer f.Close()

		ctx.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)

		_, err = io.Copy(ctx, f)

		return err
	}
}
