// Command schemacheck inspects the Weaviate schema and reports whether the
// resource class is ready for semantic search.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/reformhub/internal/config"
	"github.com/kailas-cloud/reformhub/internal/db/weaviate"
	"github.com/kailas-cloud/reformhub/internal/domain/resource"
	"github.com/kailas-cloud/reformhub/internal/version"
)

// options are the resolved flag values.
type options struct {
	Host      string
	Scheme    string
	APIKey    string
	OpenAIKey string
	Class     string
	Timeout   time.Duration
}

type connectFunc func(opts *options) (schemaSource, error)

func main() {
	_ = config.LoadDotEnv()

	app := newApp(os.Stdout, connectWeaviate)
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func newApp(out io.Writer, connect connectFunc) *cli.Command {
	return &cli.Command{
		Name:    "schemacheck",
		Usage:   "Check the resource class is configured for semantic search",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Usage:   "Weaviate host, with or without scheme",
				Sources: cli.EnvVars("WEAVIATE_HOST"),
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Weaviate API key",
				Sources: cli.EnvVars("WEAVIATE_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "scheme",
				Usage:   "Scheme when host has none",
				Value:   "https",
				Sources: cli.EnvVars("WEAVIATE_SCHEME"),
			},
			&cli.StringFlag{
				Name:    "openai-key",
				Usage:   "OpenAI key forwarded to the vectorizer",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "class",
				Usage:   "Class to inspect",
				Value:   resource.ClassName,
				Sources: cli.EnvVars("WEAVIATE_CLASS"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall timeout",
				Value: 15 * time.Second,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, &options{
				Host:      cmd.String("host"),
				Scheme:    cmd.String("scheme"),
				APIKey:    cmd.String("api-key"),
				OpenAIKey: cmd.String("openai-key"),
				Class:     cmd.String("class"),
				Timeout:   cmd.Duration("timeout"),
			}, out, connect)
		},
	}
}

// run validates credentials, inspects the class and renders the report.
// A class that is not ready is reported, not returned as an error.
func run(ctx context.Context, opts *options, out io.Writer, connect connectFunc) error {
	if opts.Host == "" || opts.APIKey == "" {
		return fmt.Errorf("missing credentials: set WEAVIATE_HOST and WEAVIATE_API_KEY (or --host and --api-key)")
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	src, err := connect(opts)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	rep, err := inspect(ctx, src, opts.Class, opts.OpenAIKey != "")
	if err != nil {
		return err
	}
	return render(out, &rep)
}

func connectWeaviate(opts *options) (schemaSource, error) {
	headers := map[string]string{}
	if opts.OpenAIKey != "" {
		headers["X-OpenAI-Api-Key"] = opts.OpenAIKey
	}
	c, err := weaviate.New(weaviate.Config{
		Host:    opts.Host,
		Scheme:  opts.Scheme,
		APIKey:  opts.APIKey,
		Headers: headers,
		Timeout: opts.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
