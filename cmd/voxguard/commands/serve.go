package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/voxguard/voxguard/pkg/enroll"
	"github.com/voxguard/voxguard/pkg/kv"
	"github.com/voxguard/voxguard/pkg/risk"
	"github.com/voxguard/voxguard/pkg/server"
	"github.com/voxguard/voxguard/pkg/session"
	"github.com/voxguard/voxguard/pkg/spoof"
	"github.com/voxguard/voxguard/pkg/storage"
	"github.com/voxguard/voxguard/pkg/voiceprint"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the audio monitoring server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		backing, err := newSessionBackend(cfg)
		if err != nil {
			return err
		}
		defer backing.Close()

		files, err := newFileStore(cfg)
		if err != nil {
			return err
		}

		sessions := session.NewStore(backing)
		if cfg.Session.IdleTimeout > 0 {
			go sessions.RunReaper(ctx, cfg.Session.IdleTimeout, cfg.Session.IdleTimeout/2)
		}

		enrollments := enroll.New(files, voiceprint.NewCepstral(),
			enroll.Config{Threshold: cfg.VerifyThreshold})
		engine := risk.New(risk.DefaultConfig(), spoof.New(spoof.DefaultConfig()))

		srv := server.New(engine, sessions, enrollments)
		slog.Info("starting voxguard",
			"listen", cfg.Listen,
			"session_backend", cfg.Session.Backend,
			"enrollment_storage", enrollmentBackendName(cfg))
		return srv.Run(ctx, cfg.Listen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newSessionBackend(cfg *Config) (kv.Store, error) {
	if cfg.Session.Backend == "badger" {
		store, err := kv.NewBadger(kv.BadgerOptions{Dir: cfg.Session.BadgerDir})
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		return store, nil
	}
	return kv.NewMemory(), nil
}

func newFileStore(cfg *Config) (storage.FileStore, error) {
	if cfg.S3.Bucket == "" {
		return storage.NewLocal(cfg.DataDir)
	}
	opts := s3.Options{Region: cfg.S3.Region}
	if cfg.S3.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		opts.UsePathStyle = true
	}
	if cfg.S3.AccessKey != "" {
		creds := aws.Credentials{
			AccessKeyID:     cfg.S3.AccessKey,
			SecretAccessKey: cfg.S3.SecretKey,
		}
		opts.Credentials = aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil })
	}
	return storage.NewS3(s3.New(opts), cfg.S3.Bucket, cfg.S3.Prefix), nil
}

func enrollmentBackendName(cfg *Config) string {
	if cfg.S3.Bucket != "" {
		return "s3://" + cfg.S3.Bucket
	}
	return cfg.DataDir
}
