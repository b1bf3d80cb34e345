package main

import (
	"context"
	"strings"
	"time"

	"github.com/webloader/dashboard/internal/analysisjob"
	"github.com/webloader/dashboard/internal/dispatcher"
	"github.com/webloader/dashboard/internal/querykind"
	"github.com/webloader/dashboard/internal/results"
	"github.com/webloader/dashboard/internal/view"
	"github.com/webloader/dashboard/pkg/webloaderapi"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the status of the pipeline containers",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			poller, err := a.pollOnce(cmd.Context())
			if err != nil {
				return err
			}

			state := poller.State()
			err = a.write(cmd, view.NewStatusView(state))
			if err != nil {
				return err
			}

			if state.Err != nil {
				return errFailed
			}

			return nil
		}),
	}
}

func newKindsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the query kinds and their parameters",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			return a.write(cmd, querykind.All())
		}),
	}
}

func newQueryCmd(opts *options) *cobra.Command {
	params := make(map[querykind.Param]*string)

	cmd := &cobra.Command{
		Use:   "query <kind>",
		Short: "Run an analysis query",
		Long: `Run an analysis query and print its table.

Examples:
  webloaderctl query word-search --word data
  webloaderctl query word-pair --word1 big --word2 data
  webloaderctl query link-count-by-page --url https://example.com`,
		Args: cobra.ExactArgs(1),
		RunE: run(opts, func(cmd *cobra.Command, a *app, args []string) error {
			spec := querykind.Spec{
				Kind:   querykind.Kind(args[0]),
				Params: make(map[string]string, len(params)),
			}
			if kind, err := querykind.Parse(args[0]); err == nil {
				spec.Kind = kind
			}

			for name, value := range params {
				if *value != "" {
					spec.Params[string(name)] = *value
				}
			}

			panel := dispatcher.New(a.logger, a.backend).Dispatch(cmd.Context(), spec)

			err := a.write(cmd, panel)
			if err != nil {
				return err
			}

			if panel.IsError() {
				return errFailed
			}

			return nil
		}),
	}

	for _, p := range []querykind.Param{
		querykind.ParamWord,
		querykind.ParamWord1,
		querykind.ParamWord2,
		querykind.ParamWord3,
		querykind.ParamURL,
	} {
		params[p] = cmd.Flags().String(string(p), "", "Value of the "+string(p)+" parameter")
	}

	return cmd
}

func newSubmitCmd(opts *options) *cobra.Command {
	var (
		analysisType string
		fields       []string
		watch        bool
		interval     time.Duration
		maxAttempts  int
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an analysis job",
		Long: `Submit an analysis job to the Spark pipeline.

With --watch the command checks the results summary every --interval until
it changes or --max-attempts checks have been made.`,
		Args: cobra.NoArgs,
		RunE: run(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			form := map[string]string{analysisjob.FieldAnalysisType: analysisType}
			for _, f := range fields {
				k, v, ok := strings.Cut(f, "=")
				if !ok || k == "" {
					return errors.Errorf("invalid field %q, expected key=value", f)
				}

				form[k] = v
			}

			ctx, cancel := context.WithCancel(cmd.Context())

			poller, err := a.pollOnce(ctx)
			if err != nil {
				cancel()
				return err
			}

			jobs := analysisjob.NewService(ctx, a.logger, a.backend, poller, analysisjob.NewMemoryRepository(), analysisjob.Config{
				WatchInterval:    interval,
				WatchMaxAttempts: maxAttempts,
			})
			defer func() {
				cancel()
				jobs.Wait()
			}()

			job, err := jobs.Submit(ctx, form)
			if err != nil {
				return err
			}

			if watch {
				job, err = jobs.Await(ctx, job.ID)
				if err != nil {
					return err
				}
			} else {
				jobs.Cancel(job.ID)
			}

			err = a.write(cmd, job)
			if err != nil {
				return err
			}

			if watch && job.State != analysisjob.StateReady {
				return errFailed
			}

			return nil
		}),
	}

	cmd.Flags().StringVarP(&analysisType, "type", "t", "", "Analysis type: word_frequency, word_pairs, word_triplets (required)")
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Extra form field as key=value, can be repeated")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Wait until the results are ready")
	cmd.Flags().DurationVar(&interval, "interval", analysisjob.DefaultWatchInterval, "Interval between result checks")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", analysisjob.DefaultWatchMaxAttempts, "Result checks before giving up")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newResultsCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show the stored analysis results",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			if limit <= 0 {
				return errors.New("limit must be positive")
			}

			res, err := results.NewLoader(a.logger, a.backend).Load(cmd.Context(), limit)
			if err != nil {
				a.logger.Debug().Err(err).Msg("results load failed")
				return errors.New(results.LoadFailedMessage)
			}

			return a.write(cmd, res)
		}),
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", webloaderapi.DefaultTopLimit, "Rows per table")

	return cmd
}

func newHelperCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "helper",
		Short: "List known pages and words",
	}

	var pagesLimit int
	pages := &cobra.Command{
		Use:   "pages",
		Short: "List analysed page URLs",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			list, err := a.backend.HelperPages(cmd.Context(), pagesLimit)
			if err != nil {
				return helperError(err)
			}

			return a.write(cmd, list)
		}),
	}
	pages.Flags().IntVarP(&pagesLimit, "limit", "n", webloaderapi.DefaultPagesLimit, "Maximum number of pages")

	var wordsLimit int
	words := &cobra.Command{
		Use:   "words",
		Short: "List the most repeated words",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			list, err := a.backend.HelperWords(cmd.Context(), wordsLimit)
			if err != nil {
				return helperError(err)
			}

			return a.write(cmd, list)
		}),
	}
	words.Flags().IntVarP(&wordsLimit, "limit", "n", webloaderapi.DefaultWordsLimit, "Maximum number of words")

	cmd.AddCommand(pages, words)

	return cmd
}

func helperError(err error) error {
	_, msg := view.ClassifyError(err, "The server could not list the helper values")
	return errors.New(msg)
}
