package controllers

import (
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/parsemint/parsemint/app/models"
	"github.com/parsemint/parsemint/app/repository"
	"github.com/parsemint/parsemint/internal/pkg/payment"
	"github.com/parsemint/parsemint/internal/pkg/pdfextract"
	"github.com/parsemint/parsemint/internal/pkg/pdfparse"
	"github.com/parsemint/parsemint/internal/pkg/s3archive"
	"github.com/parsemint/parsemint/internal/pkg/storage"
	"github.com/parsemint/parsemint/internal/pkg/usercontext"
)

var (
	paymentSvcOnce sync.Once
	paymentSvc     *payment.Service

	parseSvcOnce sync.Once
	parseSvc     *pdfparse.Service
	parseSvcErr  error
)

func getPaymentService() *payment.Service {
	paymentSvcOnce.Do(func() {
		paymentSvc = payment.NewServiceFromEnv(repository.GetGlobalRepositories())
	})
	return paymentSvc
}

func getParseService() (*pdfparse.Service, error) {
	parseSvcOnce.Do(func() {
		store, err := storage.NewDiskStoreFromEnv()
		if err != nil {
			parseSvcErr = err
			return
		}

		var archiver pdfparse.Archiver
		if cfg, err := s3archive.LoadConfig(); err == nil && cfg.IsEnabled() {
			client, err := s3archive.NewClient(cfg)
			if err != nil {
				fiberlog.Warnf("[PdfParse] S3 archival unavailable: %v", err)
			} else {
				archiver = client
			}
		}

		repos := repository.GetGlobalRepositories()
		parseSvc = pdfparse.NewService(store, pdfextract.New(), repos.PdfParse, repos.AiModel, repos.UserSubscription, archiver)
	})
	return parseSvc, parseSvcErr
}

// currentUser loads the authenticated user row for the request, or nil when
// the request carries no valid identity.
func currentUser(c *fiber.Ctx) *models.User {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return nil
	}
	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return nil
	}
	return user
}

func paramUint(c *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}
