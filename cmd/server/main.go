package main

import (
	"flag"
	"net/http"
	"os"

	"eventreg-backend/internal/components/configutil"
	"eventreg-backend/internal/components/serviceutil"
	"eventreg-backend/internal/components/telemetry"
	"eventreg-backend/internal/registration"
)

type Config struct {
	Port         int                 `json:"port"`
	Registration registration.Config `json:"registration"`
	Telemetry    telemetry.Config    `json:"telemetry"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "Path to the configuration file.")
	flag.Parse()

	ctx := serviceutil.SignalContext()
	telemetry.InitSlog(*verbose)

	cfg, err := configutil.ReadConfig[Config](*configPath)
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("read config", err)
	}
	cfg.Registration.ApplyEnv(os.LookupEnv)
	if cfg.Port == 0 {
		cfg.Port = 8000
	}

	shutdown := InitTelemetry(ctx, cfg.Telemetry)
	defer shutdown()

	mux := http.NewServeMux()
	err = InitRegistration(ctx, mux, cfg.Registration)
	if err != nil {
		serviceutil.Fatal("init registration", err)
	}

	err = serviceutil.StartHttpServer(ctx, cfg.Port, mux)
	if err != nil {
		serviceutil.Fatal("serve http", err)
	}
}
