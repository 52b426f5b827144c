// Package main is the entry point for the SuggesterGo application.
// It initializes all systems and starts the Discord bot.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/PancyStudios/SuggesterGo/internal/auditlog"
	"github.com/PancyStudios/SuggesterGo/internal/commands"
	"github.com/PancyStudios/SuggesterGo/internal/events"
	"github.com/PancyStudios/SuggesterGo/internal/guildconfig"
	"github.com/PancyStudios/SuggesterGo/internal/suggestions"
	"github.com/PancyStudios/SuggesterGo/pkg/cache"
	"github.com/PancyStudios/SuggesterGo/pkg/config"
	"github.com/PancyStudios/SuggesterGo/pkg/database"
	"github.com/PancyStudios/SuggesterGo/pkg/discord"
	"github.com/PancyStudios/SuggesterGo/pkg/errors"
	"github.com/PancyStudios/SuggesterGo/pkg/logger"
	"github.com/PancyStudios/SuggesterGo/pkg/mqtt"
	"github.com/PancyStudios/SuggesterGo/pkg/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	logger.System("Starting SuggesterGo...", "Main")
	logger.Info(fmt.Sprintf("Working directory: %s", getCurrentDir()), "Main")

	// Initialize error handler
	var discordClient *discord.ExtendedClient
	errors.Init(cfg.ErrorWebhook, func() {
		if discordClient != nil {
			if err := discordClient.Stop(); err != nil {
				return
			}
		}
	})

	// Initialize database
	db, err := database.Init(cfg.MongoDBURL, cfg.DBName)
	if err != nil {
		logger.Error(fmt.Sprintf("Error connecting to database: %v", err), "Main")
		// Continue without database, it will attempt to reconnect
	}
	defer func() {
		if db != nil {
			if err := db.Disconnect(); err != nil {
				return
			}
		}
	}()

	// Initialize global DataManagers
	if db != nil {
		database.InitGlobalDataManagers(db)
	}

	// Initialize Redis. The counters and the cooldown state live there, so
	// the bot cannot run without it.
	kv, err := cache.NewClient(cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Critical(fmt.Sprintf("Error connecting to Redis: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			return
		}
	}()

	// Initialize MQTT
	mqttClientID := "suggester"
	if !cfg.IsProd() {
		mqttClientID = "suggester_canary"
	}

	mqttClient := mqtt.Init(
		cfg.MQTTHost,
		cfg.MQTTPort,
		cfg.MQTTUser,
		cfg.MQTTPassword,
		mqttClientID,
	)
	defer mqttClient.Destroy()

	// Initialize Discord client
	discordClient, err = discord.NewClient(cfg.BotToken, cfg.OwnerID)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}

	// Wire the suggestion domain
	configs := guildconfig.NewStore(database.GlobalGuildConfigDM, kv, cfg.DefaultPrefix)
	repo := suggestions.NewRepository(database.GlobalSuggestionDM, kv)
	runtimes := suggestions.NewRuntimeManager(configs, kv, discordClient)
	auditSvc := auditlog.NewService(database.GlobalAuditLogDM, configs, discordClient)
	brokerSink := suggestions.NewBrokerSink(mqttClient)

	service := suggestions.NewService(
		configs,
		repo,
		runtimes,
		discordClient,
		discordClient,
		cfg.EmojiGuildID,
		auditSvc,
		brokerSink,
	)
	voteGuard := suggestions.NewVoteGuard(configs, repo, runtimes, discordClient, discordClient, cfg.EmojiGuildID)

	// Register commands using the commands package
	cmdDeps := commands.Deps{
		Service:  service,
		Configs:  configs,
		AuditLog: auditSvc,
	}
	commands.RegisterAll(discordClient, cmdDeps)

	// Register events using the events package
	events.RegisterAll(discordClient, events.Deps{
		Service:   service,
		Configs:   configs,
		VoteGuard: voteGuard,
	})

	// Initialize web server
	webServer := web.NewServer(cfg.LogsWebhook)
	web.SetupAPIRoutes(webServer, web.Deps{
		Bot:    discordClient,
		DB:     db,
		Counts: repo,
	})
	webServer.StartAsync(cfg.Port)

	// Start the bot
	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}
	defer func(discordClient *discord.ExtendedClient) {
		if err := discordClient.Stop(); err != nil {
			return
		}
	}(discordClient)

	logger.Success("SuggesterGo started successfully!", "Main")

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.System("Shutting down SuggesterGo...", "Main")
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
