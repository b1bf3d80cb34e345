package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/webloader/dashboard/internal/dockerstatus"
	"github.com/webloader/dashboard/internal/render"
	"github.com/webloader/dashboard/pkg/webloaderapi"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const backendURLEnv = "WEBLOADER_BACKEND_URL"

const defaultBackendURL = "http://localhost:5000"

// errFailed is returned after a failure has already been written to the output.
var errFailed = errors.New("command failed")

type options struct {
	backendURL   string
	output       string
	timeout      time.Duration
	dockerEngine bool
	verbose      bool
}

// app holds the components shared by the commands.
type app struct {
	logger  zerolog.Logger
	backend *webloaderapi.Client
	format  render.Format
	opts    *options
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "webloaderctl",
		Short: "WebLoader analysis client",
		Long: `webloaderctl runs WebLoader dashboard flows from a terminal.

Examples:
  # Check the pipeline containers
  webloaderctl status

  # Top pages for a word
  webloaderctl query word-search --word data

  # Run an analysis and wait until the results change
  webloaderctl submit --type word_frequency --watch`,
		Version:       fmt.Sprintf("%s (%s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	backendURL := os.Getenv(backendURLEnv)
	if backendURL == "" {
		backendURL = defaultBackendURL
	}

	root.PersistentFlags().StringVar(&opts.backendURL, "backend-url", backendURL, "WebLoader backend URL (env "+backendURLEnv+")")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", string(render.FormatText), "Output format: text, json, yaml")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", webloaderapi.DefaultTimeout, "Backend request timeout")
	root.PersistentFlags().BoolVar(&opts.dockerEngine, "docker-engine", false, "Read container status from the local Docker engine instead of the backend")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug messages to stderr")

	root.AddCommand(
		newStatusCmd(opts),
		newKindsCmd(opts),
		newQueryCmd(opts),
		newSubmitCmd(opts),
		newResultsCmd(opts),
		newHelperCmd(opts),
	)

	return root
}

func newApp(opts *options) (*app, error) {
	format, err := render.ParseFormat(opts.output)
	if err != nil {
		return nil, err
	}

	if opts.timeout <= 0 {
		return nil, errors.Errorf("invalid timeout %s", opts.timeout)
	}

	logger := zlog.Logger
	if opts.verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}

	return &app{
		logger:  logger,
		backend: webloaderapi.NewClient(opts.backendURL, 0, &http.Client{Timeout: opts.timeout}),
		format:  format,
		opts:    opts,
	}, nil
}

// run builds the app and calls fn with it.
func run(opts *options, fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(opts)
		if err != nil {
			return err
		}

		return fn(cmd, a, args)
	}
}

func (a *app) write(cmd *cobra.Command, v interface{}) error {
	return render.Write(cmd.OutOrStdout(), a.format, v)
}

func (a *app) statusSource() (dockerstatus.Source, error) {
	if !a.opts.dockerEngine {
		return dockerstatus.NewRemoteSource(a.backend), nil
	}

	source, err := dockerstatus.NewEngineSource(a.logger, nil, dockerstatus.PipelineServices)
	if err != nil {
		return nil, errors.Wrap(err, "docker engine is not reachable")
	}

	return source, nil
}

// pollOnce checks the container status a single time.
func (a *app) pollOnce(ctx context.Context) (*dockerstatus.Poller, error) {
	source, err := a.statusSource()
	if err != nil {
		return nil, err
	}

	poller := dockerstatus.NewPoller(ctx, a.logger, source, dockerstatus.DefaultPollInterval)
	poller.Refresh(ctx)

	return poller, nil
}
