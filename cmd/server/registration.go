package main

import (
	"context"
	"net/http"

	"eventreg-backend/internal/components/chrono"
	"eventreg-backend/internal/components/telemetry"
	"eventreg-backend/internal/registration"
)

func InitRegistration(ctx context.Context, mux *http.ServeMux, cfg registration.Config) error {
	tel := telemetry.SlogAPI{}

	service, err := registration.New(ctx, cfg, tel)
	if err != nil {
		return err
	}
	registration.NewHandler(service, registration.Gate(cfg, tel), tel).Register(mux)

	if cfg.RefreshCron == "" {
		return nil
	}
	cron := chrono.NewStandardCron(tel, nil)
	err = cron.Cron(cfg.RefreshCron, func() {
		// failures are already reported per form
		_ = service.Refresh(ctx)
	})
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		cron.Stop(context.Background())
	}()
	return nil
}
