package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sunrise-labs/wakelink/internal/alarms"
	"github.com/sunrise-labs/wakelink/internal/announce"
	"github.com/sunrise-labs/wakelink/internal/db"
	"github.com/sunrise-labs/wakelink/internal/dispatch"
	"github.com/sunrise-labs/wakelink/internal/redis"
	"github.com/sunrise-labs/wakelink/internal/scheduler"
)

func main() {
	env := LoadEnvironment()

	if err := db.Init(env.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init")
	}
	if err := db.RunMigrations(env.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	if env.RedisAddress != "" {
		redis.InitRedis(env.RedisAddress, env.RedisUsername, env.RedisPassword)
	}

	dispatcher, err := dispatch.New(env.PeripheralURL, env.DispatchTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid peripheral url")
	}

	watcher := dispatch.NewLinkWatcher(dispatcher, env.ProbeInterval)
	watcher.OnProbe = func(state dispatch.LinkState) {
		payload, err := json.Marshal(state)
		if err != nil {
			return
		}
		redis.Set(context.Background(), redis.PeripheralStatusKey, payload, 3*env.ProbeInterval)
	}

	var announcer *announce.Announcer
	if env.MQTTBrokerURL != "" {
		announcer, err = announce.New(env.MQTTBrokerURL, "wakelink-server")
		if err != nil {
			// announcements are best-effort, the alarm path works without them
			log.Error().Err(err).Msg("MQTT announcer unavailable")
			announcer = nil
		}
	}
	defer announcer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New()
	sched.Run(ctx)

	watcher.Run(ctx)

	service := alarms.NewService(db.NewStore(nil), env.AlarmSlot, sched, dispatcher, announcer)
	service.Links = watcher.Updates()
	if err := service.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("alarm service start")
	}

	if env.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	RegisterRoutes(r, service, dispatcher)

	srv := &http.Server{Addr: env.ServerAddress, Handler: r}
	go func() {
		log.Info().Str("address", env.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}
