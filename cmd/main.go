package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cpu_boost/docs"
	"cpu_boost/internal/cpufreq"
	"cpu_boost/internal/handlers"
	"cpu_boost/internal/logger"
	"cpu_boost/internal/metrics"
	"cpu_boost/internal/models"
	"cpu_boost/internal/repository"
	"cpu_boost/internal/repository/db"
	"cpu_boost/internal/server"
	"cpu_boost/internal/service"

	"github.com/fsnotify/fsnotify"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
)

const (
	backendSysfs     = "sysfs"
	backendSimulated = "simulated"

	shutdownTimeout = 10 * time.Second
)

// @title                       cpu_boost API
// @version                     1.0
// @description                 Temporary CPU frequency floor boost daemon.
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load config.yml; defaults and CPUBOOST_* env apply without it
	cfgErr := loadConfig()

	// init logger
	log := logger.Get(viper.GetString("log_level"))
	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}
	if err := requireSecrets(); err != nil {
		log.Fatalw("incomplete auth config", "err", err)
	}
	docs.SwaggerInfo.Host = viper.GetString("swagger.host")

	// open DB
	conn, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	host, err := newHost()
	if err != nil {
		log.Fatalw("failed to init cpufreq backend", "err", err)
	}

	hostname, _ := os.Hostname()
	m := metrics.NewBoost(stdprometheus.DefaultRegisterer, hostname)

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, host, serviceOptions(), m, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := services.Bootstrap(ctx, viper.GetString("auth.operator.username"), viper.GetString("auth.operator.password")); err != nil {
		log.Fatalw("failed to bootstrap services", "err", err)
	}
	watchParams(ctx, services, log)

	// start trigger monitor
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		services.Monitor.Run(ctx)
	}()

	log.Infow("boost_monitor_started",
		"backend", viper.GetString("cpufreq.backend"),
		"poll_interval_ms", viper.GetInt("boost.poll_interval_ms"),
		"default_floor_khz", viper.GetInt("boost.default_floor_khz"),
	)

	// start HTTP server
	apiHandler := handlers.NewHandler(services, log, stdprometheus.DefaultGatherer)
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, monitorDone, srv, log)
}

func setDefaults() {
	viper.SetDefault("port", server.DefaultPort)
	viper.SetDefault("log_level", logger.InfoLevel)
	viper.SetDefault("db.path", "cpu_boost.db")

	viper.SetDefault("auth.token_ttl", time.Hour)
	viper.SetDefault("auth.operator.username", "operator")

	viper.SetDefault("boost.frequency_khz", service.DefaultBoostFrequencyKHz)
	viper.SetDefault("boost.duration_ms", service.DefaultBoostDurationMs)
	viper.SetDefault("boost.poll_interval_ms", service.DefaultPollInterval.Milliseconds())
	viper.SetDefault("boost.default_floor_khz", service.DefaultFloorKHz)

	viper.SetDefault("cpufreq.backend", backendSysfs)
	viper.SetDefault("cpufreq.sysfs_root", cpufreq.DefaultSysfsRoot)
	viper.SetDefault("cpufreq.simulated.cpus", 4)
	viper.SetDefault("cpufreq.simulated.min_khz", service.DefaultFloorKHz)
	viper.SetDefault("cpufreq.simulated.max_khz", 2265600)
}

func loadConfig() error {
	setDefaults()

	viper.SetEnvPrefix("CPUBOOST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// requireSecrets checks that the token signing key and, when an operator
// account is seeded, its password were configured.
func requireSecrets() error {
	if strings.TrimSpace(viper.GetString("auth.signing_key")) == "" {
		return errors.New("auth.signing_key is not set (CPUBOOST_AUTH_SIGNING_KEY)")
	}
	if viper.GetString("auth.operator.username") != "" && viper.GetString("auth.operator.password") == "" {
		return errors.New("auth.operator.password is not set (CPUBOOST_AUTH_OPERATOR_PASSWORD)")
	}
	return nil
}

func serviceOptions() service.Options {
	return service.Options{
		Params:          paramsFromConfig(),
		PollInterval:    time.Duration(viper.GetInt("boost.poll_interval_ms")) * time.Millisecond,
		DefaultFloorKHz: viper.GetInt("boost.default_floor_khz"),
		Auth: service.AuthOptions{
			SigningKey: viper.GetString("auth.signing_key"),
			TokenTTL:   viper.GetDuration("auth.token_ttl"),
		},
	}
}

func paramsFromConfig() models.BoostParams {
	return models.BoostParams{
		FrequencyKHz: viper.GetInt("boost.frequency_khz"),
		DurationMs:   viper.GetInt("boost.duration_ms"),
	}
}

// newHost selects the frequency-policy backend.
func newHost() (cpufreq.Host, error) {
	switch backend := viper.GetString("cpufreq.backend"); backend {
	case backendSysfs:
		return cpufreq.NewSysfsHost(viper.GetString("cpufreq.sysfs_root")), nil
	case backendSimulated:
		return cpufreq.NewSimHost(
			viper.GetInt("cpufreq.simulated.cpus"),
			viper.GetInt("cpufreq.simulated.min_khz"),
			viper.GetInt("cpufreq.simulated.max_khz"),
		), nil
	default:
		return nil, fmt.Errorf("unknown cpufreq backend %q", backend)
	}
}

// watchParams pushes boost.frequency_khz / boost.duration_ms edits in the
// config file into the running service.
func watchParams(ctx context.Context, services *service.Service, log *logger.Logger) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	last := paramsFromConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		p := paramsFromConfig()
		if p == last {
			return
		}
		if err := services.ReloadParams(ctx, p); err != nil {
			log.Errorw("config_params_reload_failed", "file", e.Name, "err", err)
			return
		}
		last = p
		log.Infow("config_params_reloaded", "file", e.Name, "frequency_khz", p.FrequencyKHz, "duration_ms", p.DurationMs)
	})
	viper.WatchConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "cpu_boost.db")
		dbPath = "cpu_boost.db"
	}
	return db.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals, stops the monitor
// (which restores the default floor if boosted) and drains the server.
func waitForShutdown(cancel context.CancelFunc, monitorDone <-chan struct{}, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// stop background goroutines
	cancel()
	select {
	case <-monitorDone:
	case <-ctx.Done():
		log.Errorw("boost monitor did not stop in time", "timeout", shutdownTimeout)
	}

	// allow in-flight requests to complete
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
