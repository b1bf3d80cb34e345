package main

import (
	"context"
	"os"
	"time"

	"github.com/webloader/dashboard/internal/analysisjob"
	"github.com/webloader/dashboard/internal/dockerstatus"
	"github.com/webloader/dashboard/pkg/webloaderapi"

	"github.com/aws/aws-sdk-go-v2/aws"
	gconfig "github.com/gookit/config/v2"
	gyaml "github.com/gookit/config/v2/yaml"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

const DefaultConfigPath = "config.yaml"

const DefaultStatusPollInterval = dockerstatus.DefaultPollInterval

type LogFormat string

const (
	PrettyLogFormat LogFormat = "pretty"
	JSONLogFormat   LogFormat = "json"
)

type RepositoryType string

const (
	RepositoryTypeMemory   RepositoryType = "MEMORY"
	RepositoryTypeDynamoDB RepositoryType = "DYNAMODB"
)

type Config struct {
	LogLevel  string    `mapstructure:"log_level"`
	LogFormat LogFormat `mapstructure:"log_format"`

	API API `mapstructure:"api"`

	PrometheusExportAddress string `mapstructure:"prometheus_address"`

	Backend  Backend  `mapstructure:"backend"`
	Status   Status   `mapstructure:"status"`
	Analysis Analysis `mapstructure:"analysis"`
	Jobs     Jobs     `mapstructure:"jobs"`

	AWS *AWS `mapstructure:"aws"`
}

type API struct {
	ListeningAddress string        `mapstructure:"address"`
	ServerTimeout    time.Duration `mapstructure:"server_timeout"`
}

type Backend struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	MaxRPS  int           `mapstructure:"max_rps"`
}

type Status struct {
	Source       dockerstatus.SourceType `mapstructure:"source"`
	PollInterval time.Duration           `mapstructure:"poll_interval"`

	DockerEngine *DockerEngine `mapstructure:"docker_engine"`
}

type DockerEngine struct {
	// DaemonURL overrides DOCKER_HOST.
	DaemonURL *string  `mapstructure:"daemon_url"`
	Services  []string `mapstructure:"services"`
}

type Analysis struct {
	WatchInterval    time.Duration `mapstructure:"watch_interval"`
	WatchMaxAttempts int           `mapstructure:"watch_max_attempts"`
}

type Jobs struct {
	Repository RepositoryType `mapstructure:"repository"`
}

type AWS struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Region          string `mapstructure:"region"`

	// Endpoint points the client to DynamoDB Local or another compatible endpoint.
	Endpoint *string `mapstructure:"endpoint"`

	JobsTableName string `mapstructure:"jobs_table"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultConfigPath
	}

	gconfig.WithOptions(
		gconfig.ParseEnv,
		gconfig.Readonly,
		func(opts *gconfig.Options) {
			opts.DecoderConfig = &mapstructure.DecoderConfig{
				TagName:          "mapstructure",
				WeaklyTypedInput: true,
				DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
			}
		},
	)
	gconfig.AddDriver(gyaml.Driver)

	err := gconfig.LoadFiles(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	cfg := new(Config)
	err = gconfig.BindStruct("", cfg)
	if err != nil {
		return nil, errors.Wrap(err, "config binding failed")
	}

	err = cfg.validate()
	if err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return cfg, nil
}

// validate verifies the loaded config and sets default values for missed fields.
func (c *Config) validate() error {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	switch c.LogFormat {
	case PrettyLogFormat, JSONLogFormat:
	case "":
		c.LogFormat = JSONLogFormat
	default:
		return errors.Errorf("unknown log_format %s (supported: %s, %s)", c.LogFormat, PrettyLogFormat, JSONLogFormat)
	}

	if c.API.ListeningAddress == "" {
		c.API.ListeningAddress = ":9000"
	}
	if c.API.ServerTimeout == 0 {
		c.API.ServerTimeout = 60 * time.Second
	}

	if c.PrometheusExportAddress == "" {
		c.PrometheusExportAddress = ":2112"
	}

	if c.Backend.URL == "" {
		return errors.New("backend.url is required")
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = webloaderapi.DefaultTimeout
	}
	if c.Backend.MaxRPS == 0 {
		c.Backend.MaxRPS = webloaderapi.DefaultMaxRPS
	}

	if c.Status.PollInterval == 0 {
		c.Status.PollInterval = DefaultStatusPollInterval
	}
	if c.Status.PollInterval < 0 {
		return errors.New("status.poll_interval must be positive")
	}

	switch c.Status.Source {
	case dockerstatus.SourceTypeRemote:

	case dockerstatus.SourceTypeDockerEngine:
		if c.Status.DockerEngine == nil {
			c.Status.DockerEngine = &DockerEngine{}
		}
		if len(c.Status.DockerEngine.Services) == 0 {
			c.Status.DockerEngine.Services = dockerstatus.PipelineServices
		}

	case "":
		c.Status.Source = dockerstatus.SourceTypeRemote

	default:
		return errors.Errorf("unknown status source %s (supported: %s, %s)", c.Status.Source, dockerstatus.SourceTypeRemote, dockerstatus.SourceTypeDockerEngine)
	}

	if c.Analysis.WatchInterval == 0 {
		c.Analysis.WatchInterval = analysisjob.DefaultWatchInterval
	}
	if c.Analysis.WatchMaxAttempts == 0 {
		c.Analysis.WatchMaxAttempts = analysisjob.DefaultWatchMaxAttempts
	}
	if c.Analysis.WatchInterval < 0 || c.Analysis.WatchMaxAttempts < 0 {
		return errors.New("analysis.watch_interval and analysis.watch_max_attempts must be positive")
	}

	switch c.Jobs.Repository {
	case RepositoryTypeMemory:

	case RepositoryTypeDynamoDB:
		if c.AWS == nil {
			return errors.New("aws is required when jobs.repository is DYNAMODB")
		}
		if c.AWS.Region == "" {
			return errors.New("aws.region is required")
		}
		if c.AWS.JobsTableName == "" {
			return errors.New("aws.jobs_table is required")
		}

	case "":
		c.Jobs.Repository = RepositoryTypeMemory

	default:
		return errors.Errorf("unknown jobs repository %s (supported: %s, %s)", c.Jobs.Repository, RepositoryTypeMemory, RepositoryTypeDynamoDB)
	}

	return nil
}

func (c *Config) Retrieve(_ context.Context) (aws.Credentials, error) {
	return aws.Credentials{
		AccessKeyID:     c.AWS.AccessKeyID,
		SecretAccessKey: c.AWS.SecretAccessKey,
		Source:          "local config",
	}, nil
}
