package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	var (
		port    = flag.String("port", "9099", "port to listen on")
		data    = flag.String("data", "cmd/catalog-mock/testdata/catalog.json", "path to mock data file")
		apiKey  = flag.String("api-key", os.Getenv("TMDB_API_KEY"), "required api_key value; empty accepts any key")
		verbose = flag.Bool("log", false, "enable debug logging")
	)
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	run(logger, ":"+*port, *data, *apiKey)
}

func run(logger *logrus.Logger, addr, data, apiKey string) {
	fx, err := loadFixture(data)
	if err != nil {
		logger.WithError(err).Fatal("load fixture")
		return
	}

	logger.WithFields(logrus.Fields{
		"addr":   addr,
		"movies": len(fx.Movies),
	}).Info("mock catalog listening")
	if err := http.ListenAndServe(addr, newRouter(fx, apiKey, logger)); err != nil {
		logger.WithError(err).Fatal("server error")
	}
}
