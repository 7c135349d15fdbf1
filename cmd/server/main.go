package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/collab-api/internal/config"
	"github.com/yukikurage/collab-api/internal/constants"
	"github.com/yukikurage/collab-api/internal/database"
	"github.com/yukikurage/collab-api/internal/handlers"
	"github.com/yukikurage/collab-api/internal/logging"
	"github.com/yukikurage/collab-api/internal/mailer"
	"github.com/yukikurage/collab-api/internal/middleware"
	"github.com/yukikurage/collab-api/internal/models"
	"github.com/yukikurage/collab-api/internal/repository"
	"github.com/yukikurage/collab-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	isProduction := cfg.GinMode == gin.ReleaseMode
	log := logging.New(logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
		JSON:  isProduction,
	})

	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := database.MigrateDatabase(db, log); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Mail goes through SMTP when a relay is configured, otherwise to the log
	var sender mailer.Sender = mailer.NewLogSender(log)
	if cfg.SMTPHost != "" {
		sender = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, log)
	}
	mail := mailer.NewDispatcher(sender, mailer.Options{
		QueueSize: cfg.MailQueueSize,
		Workers:   cfg.MailWorkers,
		BaseURL:   cfg.AppBaseURL,
	}, log)
	mail.Start(context.Background())
	defer func() {
		if err := mail.Close(); err != nil {
			log.WithError(err).Warn("Mail dispatcher did not shut down cleanly")
		}
	}()

	store := repository.NewStore(db)

	var generator services.TaskGenerator
	if cfg.OpenAIAPIKey != "" {
		generator = services.NewAIService(cfg.OpenAIAPIKey)
	} else {
		log.Warn("OPENAI_API_KEY is not set; task generation is disabled")
	}

	h := handlers.Handlers{
		Auth: handlers.NewAuthHandler(
			services.NewAuthService(store, mail, cfg.AppBaseURL, log),
			services.NewAccountService(store, log),
		),
		Teams:          handlers.NewTeamHandler(services.NewTeamService(store, log)),
		Projects:       handlers.NewProjectHandler(services.NewProjectService(store, log)),
		TeamMembers:    handlers.NewMembershipHandler(services.NewMembershipService(models.ResourceTeam, store, mail, log)),
		ProjectMembers: handlers.NewMembershipHandler(services.NewMembershipService(models.ResourceProject, store, mail, log)),
		Invitations:    handlers.NewInvitationHandler(services.NewInvitationService(store, log)),
		Tasks:          handlers.NewTaskHandler(services.NewTaskService(store, generator, log)),
	}

	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	sessionStore, err := redisStore.NewStore(10, "tcp", redisAddr, "", "", []byte(cfg.SessionSecret))
	if err != nil {
		log.WithError(err).Fatal("Failed to create Redis store")
	}
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, sessionStore))

	handlers.RegisterRoutes(r, h)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}
