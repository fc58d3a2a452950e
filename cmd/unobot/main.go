// unobot 把 UNO 引擎接到聊天网关和演示页面上
// 入站命令从 Redis List 消费，回复推回出站 List，聊天平台适配器只管搬运消息
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/play/uno/pkg/bot"
	"github.com/play/uno/pkg/gateway"
	"github.com/play/uno/pkg/room"
	"github.com/play/uno/pkg/web"
)

func initConfig() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("topic.inbound", "chat:inbound")
	viper.SetDefault("topic.outbound", "chat:outbound")
	viper.SetDefault("web.addr", ":8080")
	viper.SetDefault("room.capacity", 1024)
	viper.SetDefault("room.ttl", "12h")
	viper.SetDefault("bot.cooldown.count", 10)
	viper.SetDefault("bot.cooldown.per", "10s")

	viper.SetEnvPrefix("UNO")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal().Err(err).Msg("failed to read config file")
		}
	}
}

func main() {
	initConfig()

	level, err := zerolog.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	rdb := redis.NewClient(&redis.Options{
		Addr:     viper.GetString("redis.addr"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", viper.GetString("redis.addr")).Msg("redis not reachable")
	}

	rooms := room.NewManager(
		room.WithCapacity(viper.GetInt("room.capacity")),
		room.WithTTL(viper.GetDuration("room.ttl")),
	)
	b := bot.New(rooms,
		bot.WithCooldown(viper.GetInt("bot.cooldown.count"), viper.GetDuration("bot.cooldown.per")),
	)

	gw := gateway.New(rdb, gateway.WithRecovery())
	outbound := viper.GetString("topic.outbound")

	sub, err := gw.Subscribe(ctx, viper.GetString("topic.inbound"), func(msg gateway.Message) {
		reply := b.Handle(msg)
		if reply == "" {
			return
		}
		out := gateway.Message{
			Session: msg.Session,
			Sender:  "unobot",
			Text:    reply,
			SentAt:  time.Now().UnixMilli(),
		}
		if err := gw.Publish(ctx, outbound, out); err != nil {
			log.Error().Err(err).Str("session", msg.Session).Msg("failed to publish reply")
		}
	}, gateway.WithConcurrency(4))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe to inbound topic")
	}
	sub.Loop()

	srv := &http.Server{
		Addr:    viper.GetString("web.addr"),
		Handler: web.New(rooms),
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("demo web server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("web server failed")
		}
	}()

	log.Info().Str("inbound", viper.GetString("topic.inbound")).Str("outbound", outbound).Msg("unobot up")
	<-ctx.Done()

	log.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("web server shutdown failed")
	}
	if err := gw.Close(); err != nil {
		log.Error().Err(err).Msg("gateway close failed")
	}
}
