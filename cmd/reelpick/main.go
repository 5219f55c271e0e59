package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/Clark-Hu/reelpick/internal/catalog"
	"github.com/Clark-Hu/reelpick/internal/logging"
	"github.com/Clark-Hu/reelpick/internal/picker"
	"github.com/Clark-Hu/reelpick/internal/prefs"
)

const (
	keyFlag      = "tmdb-api-key"
	urlFlag      = "tmdb-url"
	regionFlag   = "tmdb-region"
	timeoutFlag  = "tmdb-timeout"
	prefsFlag    = "prefs-file"
	logLevelFlag = "log-level"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(ctx, envFromFlags)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func registerFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   keyFlag,
			Usage:  "catalog api key",
			EnvVar: "TMDB_API_KEY",
		},
		cli.StringFlag{
			Name:   urlFlag,
			Usage:  "catalog api base url",
			EnvVar: "TMDB_URL",
			Value:  "https://api.themoviedb.org/3",
		},
		cli.StringFlag{
			Name:   regionFlag,
			Usage:  "watch region",
			EnvVar: "TMDB_REGION",
			Value:  catalog.DefaultRegion,
		},
		cli.IntFlag{
			Name:   timeoutFlag,
			Usage:  "catalog request timeout in seconds",
			EnvVar: "TMDB_TIMEOUT_SECS",
			Value:  5,
		},
		cli.StringFlag{
			Name:   prefsFlag,
			Usage:  "file holding the saved service selection",
			EnvVar: "REELPICK_PREFS_FILE",
			Value:  defaultPrefsPath(),
		},
		cli.StringFlag{
			Name:   logLevelFlag,
			Usage:  "log level",
			EnvVar: "LOG_LEVEL",
			Value:  "warn",
		},
	)
}

func defaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "reelpick-prefs.json"
	}
	return filepath.Join(dir, "reelpick", "prefs.json")
}

// envFromFlags builds the command environment from global flags.
func envFromFlags(c *cli.Context) (*env, error) {
	logger, err := logging.New(os.Stderr, c.GlobalString(logLevelFlag), "text")
	if err != nil {
		return nil, err
	}
	httpClient, err := catalog.NewHTTPClient(c.GlobalString(urlFlag), catalog.Options{
		APIKey:  c.GlobalString(keyFlag),
		Region:  c.GlobalString(regionFlag),
		Timeout: time.Duration(c.GlobalInt(timeoutFlag)) * time.Second,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	client := newDetailsCache(httpClient)
	return &env{
		catalog: client,
		picker:  picker.New(client, picker.WithLogger(logger)),
		prefs:   prefs.NewFileStore(c.GlobalString(prefsFlag)),
		logger:  logger,
	}, nil
}
