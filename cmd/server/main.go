package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"slnotes/internal/config"
	"slnotes/internal/crypto"
	"slnotes/internal/db"
	internalhttp "slnotes/internal/http"
	"slnotes/internal/jobs"
	"slnotes/internal/mail"
	"slnotes/internal/repository"
	"slnotes/internal/storage"
)

func main() {
	createAdmin := flag.String("create-admin", "", "create an admin account as email:password and exit")
	flag.Parse()

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	store := repository.NewStore(pool)

	if *createAdmin != "" {
		if err := createAdminAccount(ctx, store, *createAdmin); err != nil {
			log.Fatalf("create admin failed: %v", err)
		}
		return
	}

	redisClient, err := db.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("redis close error: %v", err)
			}
		}()
	}

	uploads, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		log.Fatalf("upload dir failed: %v", err)
	}

	var mailer mail.Mailer
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		mailer = mail.NewLogMailer(logger)
	}

	jobs.StartOrphanSweepJob(ctx, cfg, store, uploads)

	server := internalhttp.NewServer(cfg, store, uploads, mailer, redisClient, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("slnotes listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func createAdminAccount(ctx context.Context, store *repository.Store, account string) error {
	email, password, ok := strings.Cut(account, ":")
	if !ok || email == "" || password == "" {
		return errors.New("expected email:password")
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}
	user, err := store.CreateUser(ctx, "Administrator", email, hash, crypto.NewVerificationToken())
	if err != nil {
		return err
	}
	if err := store.MarkUserVerified(ctx, user.ID); err != nil {
		return err
	}
	enable := true
	if _, err := store.UpdateUserFlags(ctx, user.ID, &enable, &enable); err != nil {
		return err
	}
	log.Printf("admin account %s created", email)
	return nil
}
