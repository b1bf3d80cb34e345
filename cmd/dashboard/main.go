package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/webloader/dashboard/internal/analysisjob"
	"github.com/webloader/dashboard/internal/dispatcher"
	"github.com/webloader/dashboard/internal/dockerstatus"
	"github.com/webloader/dashboard/internal/render"
	"github.com/webloader/dashboard/internal/results"
	api "github.com/webloader/dashboard/pkg/restapi"
	"github.com/webloader/dashboard/pkg/webloaderapi"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconf "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Listen to termination signals.
	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Initialize config.
	config, err := LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("config cannot be loaded")
	}

	// Initialize logger.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if config.LogFormat == PrettyLogFormat {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	lvl, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		zlog.Fatal().Err(err).Msg("invalid log level")
	}

	zlog.Logger = zlog.Logger.Level(lvl)
	logger := zlog.Logger

	backend := webloaderapi.NewClient(config.Backend.URL, config.Backend.MaxRPS, &http.Client{
		Timeout: config.Backend.Timeout,
	})

	// Start polling the container status.
	var background sync.WaitGroup

	poller := dockerstatus.NewPoller(ctx, logger, initializeStatusSource(config, logger, backend), config.Status.PollInterval)
	background.Add(1)
	go func() {
		defer background.Done()
		poller.Start()
	}()

	// Initialize analysis jobs.
	jobs := analysisjob.NewService(ctx, logger, backend, poller, initializeJobRepository(ctx, config), analysisjob.Config{
		WatchInterval:    config.Analysis.WatchInterval,
		WatchMaxAttempts: config.Analysis.WatchMaxAttempts,
	})

	html, err := render.NewHTML()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load page templates")
	}

	// Initialize the REST server.
	router := api.NewRouter(config.API.ServerTimeout, api.Deps{
		Status:     poller,
		Dispatcher: dispatcher.New(logger, backend),
		Jobs:       jobs,
		Results:    results.NewLoader(logger, backend),
		Helpers:    backend,
		HTML:       html,
	})

	srv := &http.Server{
		Addr:              config.API.ListeningAddress,
		Handler:           router,
		ReadTimeout:       20 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      config.API.ServerTimeout + 5*time.Second,
	}
	go func() {
		zlog.Info().
			Str("address", config.API.ListeningAddress).
			Str("backend", backend.BaseURL()).
			Msg("starting the server")

		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("server listen failed")
		}
	}()

	// Export Prometheus metrics.
	go func() {
		zlog.Info().Str("address", config.PrometheusExportAddress).Msg("starting the prometheus exporter")

		metricSrv := &http.Server{
			Addr:              config.PrometheusExportAddress,
			Handler:           http.DefaultServeMux,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
		}

		http.DefaultServeMux.Handle("/metrics", promhttp.Handler())
		err := metricSrv.ListenAndServe()
		if err != nil {
			zlog.Error().Err(err).Msg("prometheus exporter failed")
		}
	}()

	<-stop
	cancel()

	shutdownCtx, shutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdown()

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		zlog.Error().Err(err).Msg("server shutdown failed")
	}

	background.Wait()
	jobs.Wait()
}

func initializeStatusSource(config *Config, logger zerolog.Logger, backend *webloaderapi.Client) dockerstatus.Source {
	switch config.Status.Source {
	case dockerstatus.SourceTypeDockerEngine:
		engine := config.Status.DockerEngine

		source, err := dockerstatus.NewEngineSource(logger, engine.DaemonURL, engine.Services)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to create docker engine status source")
		}

		return source

	default:
		return dockerstatus.NewRemoteSource(backend)
	}
}

func initializeJobRepository(ctx context.Context, config *Config) analysisjob.Repository {
	if config.Jobs.Repository != RepositoryTypeDynamoDB {
		return analysisjob.NewMemoryRepository()
	}

	// Load AWS credentials.
	var awsOpts []func(*awsconf.LoadOptions) error
	if config.AWS.AccessKeyID != "" {
		// Load AWS config with credentials when AccessKeyID is not empty.
		// Otherwise, we let SDK to pick credentials from available sources automatically.
		awsOpts = append(awsOpts, awsconf.WithCredentialsProvider(config))
	}

	awsOpts = append(awsOpts, awsconf.WithRegion(config.AWS.Region))

	awsConfig, err := awsconf.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load AWS config")
	}

	client := dynamodb.NewFromConfig(awsConfig, func(o *dynamodb.Options) {
		if config.AWS.Endpoint != nil {
			o.BaseEndpoint = aws.String(*config.AWS.Endpoint)
		}
	})

	return analysisjob.NewDynamoRepository(client, config.AWS.JobsTableName)
}
