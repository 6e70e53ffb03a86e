package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/fetchchain/internal/app"
	"github.com/oshokin/fetchchain/internal/config"
	"github.com/oshokin/fetchchain/internal/logger"
	"github.com/oshokin/fetchchain/internal/version"
)

var (
	//nolint:gochecknoglobals // It is required for configuration initialization before the application starts.
	configFilenameFromFlag string

	//nolint:gochecknoglobals,lll // It is initialized once during the application's startup and shared across the command execution logic.
	appConfig *config.Config

	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	rootCmd = &cobra.Command{
		Use:   "fetchchain",
		Short: "Send HTTP requests built with a chainable request builder.",
		Long: `Fetchchain is a CLI for calling HTTP APIs.
Each verb command (get, post, put, patch, delete) builds a request chain:
- headers and query parameters are merged over configured defaults
- bodies can be JSON, YAML (sent as JSON) or multipart forms
- non-2xx responses are decoded as text or JSON and printed

Several URLs are fetched concurrently and printed in argument order.`,
		Version: version.Full(),
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	initConfigCmd = &cobra.Command{
		Use:   "init-config",
		Short: "Write a configuration file with default values",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			app.ExecuteInitConfigCommand(cmd.Context(), configFilenameFromFlag)
		},
	}
)

// Execute executes the root command.
func Execute() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)

	defer func() {
		_ = logger.Logger().Sync()
	}()

	defer stop()

	go func() {
		defer stop()

		err := rootCmd.ExecuteContext(ctx)
		cobra.CheckErr(err)
	}()

	<-ctx.Done()
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configFilenameFromFlag,
		"config",
		"c",
		"",
		fmt.Sprintf("path to the configuration file (default is '%s')",
			config.DefaultConfigFilename))

	rootCmd.AddCommand(initConfigCmd)

	for _, method := range []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	} {
		rootCmd.AddCommand(newVerbCommand(method))
	}
}

// newVerbCommand creates the command that sends requests with method.
func newVerbCommand(method string) *cobra.Command {
	cmd := &cobra.Command{
		Use:              strings.ToLower(method) + " [flags] {urls}",
		Short:            fmt.Sprintf("Send %s requests to one or more URLs", method),
		Args:             cobra.ArbitraryArgs,
		PersistentPreRun: initConfig,
		Run: func(cmd *cobra.Command, urls []string) {
			if err := bindFlagsToConfig(cmd.Flags(), appConfig); err != nil {
				logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
			}

			logger.SetLevel(appConfig.ParsedLogLevel)

			flags, err := requestFlagsFromFlags(cmd.Flags())
			if err != nil {
				logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
			}

			app.ExecuteRequestCommand(cmd.Context(), appConfig, method, urls, flags)
		},
	}

	addRequestFlags(cmd.Flags())

	return cmd
}

func addRequestFlags(flags *pflag.FlagSet) {
	flags.StringArrayP("header", "H", nil, "request header as 'Name: value' (repeatable).")
	flags.StringArrayP("query", "q", nil, "query parameter as 'key=value' (repeatable, repeated keys become arrays).")
	flags.String("accept", "", "value of the Accept header.")
	flags.String("json", "", "JSON request body.")
	flags.String("yaml", "", "YAML file sent as a JSON request body.")
	flags.StringArrayP("form", "F", nil, "multipart form field as 'key=value' (repeatable).")
	flags.String("as", string(app.ShapeText), "response body shape: text, json, blob, form or bytes.")
	flags.String("select", "", "gjson or simple JSONPath applied to the response body, for example '$.items[0].id'.")
	flags.StringP("output", "o", "", "write the response body to a file instead of stdout.")
	flags.BoolP("remote-name", "O", false, "write each response body to a file named after its URL.")
	flags.String("input-file", "", "file with additional URLs, one per line.")
	flags.Duration("timeout", 0, "timeout of each request, for example 5s (default is the configured timeout).")
	flags.Bool("fail", false, "exit with an error when a response status is not 2xx.")

	flags.String("base-url", "", "prefix for URLs without a scheme.")
	flags.String("error-type", "", "how error bodies are decoded: text or json.")
	flags.String("log-level", "", "log level: debug, info, warn or error.")
	flags.String("user-agent", "", "User-Agent header value.")
	flags.Int64("max-concurrent-requests", 0, "maximum number of requests in flight.")
	flags.Bool("no-color", false, "disable colored status lines.")
}

func initConfig(cmd *cobra.Command, _ []string) {
	var err error

	appConfig, err = config.LoadConfig(configFilenameFromFlag)
	if err != nil {
		logger.Fatalf(cmd.Context(), "Failed to load configuration: %v", err)
	}

	logger.SetLevel(appConfig.ParsedLogLevel)
}

func bindFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup("base-url"); flag != nil && flag.Changed {
		cfg.BaseURL, _ = flags.GetString("base-url")
	}

	if flag := flags.Lookup("error-type"); flag != nil && flag.Changed {
		cfg.ErrorType, _ = flags.GetString("error-type")
	}

	if flag := flags.Lookup("log-level"); flag != nil && flag.Changed {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	if flag := flags.Lookup("user-agent"); flag != nil && flag.Changed {
		cfg.UserAgent, _ = flags.GetString("user-agent")
	}

	if flag := flags.Lookup("max-concurrent-requests"); flag != nil && flag.Changed {
		cfg.MaxConcurrentRequests, _ = flags.GetInt64("max-concurrent-requests")
	}

	if flag := flags.Lookup("no-color"); flag != nil && flag.Changed {
		cfg.NoColor, _ = flags.GetBool("no-color")
	}

	return config.ValidateConfig(cfg)
}

func requestFlagsFromFlags(flags *pflag.FlagSet) (app.RequestFlags, error) {
	var (
		result app.RequestFlags
		err    error
	)

	stringArrays := []struct {
		name   string
		target *[]string
	}{
		{"header", &result.Headers},
		{"query", &result.Query},
		{"form", &result.Form},
	}

	for _, item := range stringArrays {
		if *item.target, err = flags.GetStringArray(item.name); err != nil {
			return result, err
		}
	}

	stringsByName := []struct {
		name   string
		target *string
	}{
		{"accept", &result.Accept},
		{"json", &result.JSON},
		{"yaml", &result.YAMLFile},
		{"as", &result.As},
		{"select", &result.Select},
		{"output", &result.Output},
		{"input-file", &result.InputFile},
	}

	for _, item := range stringsByName {
		if *item.target, err = flags.GetString(item.name); err != nil {
			return result, err
		}
	}

	if result.RemoteName, err = flags.GetBool("remote-name"); err != nil {
		return result, err
	}

	if result.Fail, err = flags.GetBool("fail"); err != nil {
		return result, err
	}

	if result.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return result, err
	}

	return result, nil
}
