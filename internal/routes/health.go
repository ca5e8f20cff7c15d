package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/bank_ledger/internal/infra"
)

const statusDisabled = "disabled"

// RegisterHealthRoutes adds the dependency status endpoint.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		dbStatus, redisStatus, kafkaStatus := statusDisabled, statusDisabled, statusDisabled

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if d.DB != nil {
			dbStatus = probe(d.DB.Ping(ctx))
		}
		if d.Cache != nil {
			redisStatus = probe(d.Cache.Ping(ctx).Err())
		}
		if len(d.Cfg.KafkaBrokers) > 0 {
			kafkaStatus = probe(infra.PingKafka(ctx, d.Cfg.KafkaBrokers))
		}

		status := http.StatusOK
		for _, s := range []string{dbStatus, redisStatus, kafkaStatus} {
			if s != "ok" && s != statusDisabled {
				status = http.StatusServiceUnavailable
			}
		}
		return c.Status(status).JSON(fiber.Map{
			"status":    fiber.Map{"postgres": dbStatus, "redis": redisStatus, "kafka": kafkaStatus},
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}

func probe(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}
