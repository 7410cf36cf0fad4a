package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/umputun/lingoscope/pkg/config"
	"github.com/umputun/lingoscope/pkg/content"
	"github.com/umputun/lingoscope/pkg/feed"
	"github.com/umputun/lingoscope/pkg/lark"
	"github.com/umputun/lingoscope/pkg/llm"
	"github.com/umputun/lingoscope/pkg/pipeline"
)

// Opts with all CLI options
type Opts struct {
	Config  string `short:"c" long:"config" env:"CONFIG" default:"config.json" description:"config file location"`
	Debug   bool   `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool   `short:"V" long:"version" description:"show version info"`
	NoColor bool   `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

const userAgent = "lingoscope/1.0"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	// .env is optional, config.json may reference its variables
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		log.Printf("[ERROR] daily run failed: %v", err)
		os.Exit(1)
	}
	log.Print("[INFO] daily run completed")
}

// run loads the config, wires the collaborators and executes one pipeline pass
func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	setupLog(opts.Debug, cfg.OpenAIAPIKey, cfg.LarkAppSecret, cfg.LarkAccessToken)
	log.Printf("[INFO] starting lingoscope version %s", revision)

	token, err := resolveLarkToken(ctx, cfg)
	if err != nil {
		return fmt.Errorf("resolve lark token: %w", err)
	}

	extractor := content.NewExtractor(cfg.Timeout(), userAgent)
	p := pipeline.New(pipeline.Opts{
		Config:  cfg,
		Stories: feed.NewHackerNews("", cfg.Timeout()),
		News:    feed.NewRSS(cfg.Timeout(), userAgent),
		Blog: feed.NewTechBlog(feed.TechBlogOpts{
			FeedURL:       cfg.TechBlogFeedURL,
			FallbackURLs:  cfg.TechBlogFallbackURLs,
			Timeout:       cfg.Timeout(),
			MaxChars:      cfg.MaxArticleChars,
			AllowInsecure: cfg.AllowInsecureFallback,
			AllowCurl:     cfg.AllowCurlFallback,
			UserAgent:     userAgent,
			Extractor:     extractor,
		}),
		Generator: llm.NewGenerator(llm.Opts{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			Model:          cfg.OpenAIModel,
			Temperature:    0.2,
			Timeout:        cfg.GenerationTimeout(),
			MaxSourceChars: cfg.MaxArticleChars,
		}),
		Publisher: lark.NewClient(cfg.LarkBaseURL, token, cfg.LarkFolderToken, cfg.Timeout()),
	})

	return p.Run(ctx)
}

// resolveLarkToken returns the operator-supplied token or exchanges app credentials
func resolveLarkToken(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.LarkAccessToken != "" {
		log.Print("[INFO] using lark access token from configuration")
		return cfg.LarkAccessToken, nil
	}
	return lark.FetchTenantToken(ctx, cfg.LarkBaseURL, cfg.LarkAppID, cfg.LarkAppSecret, cfg.Timeout())
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	// mask credentials in log output
	var secrets []string
	for _, s := range secs {
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
