package main

import (
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	"capivara-server/internal/config"
	"capivara-server/internal/mux"
	"capivara-server/pkg/room"

	"github.com/gorilla/handlers"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

const readTimeout = time.Second * 5
const writeTimeout = time.Second * 10

// Version is the server version
var Version = "v0.0.0-dev"

var addr = flag.String("addr", "", "the listen address (overrides the configuration)")

func main() {
	flag.Parse()
	setupLogger()

	cfg := config.Instance()

	listen := cfg.Listen
	if *addr != "" {
		listen = *addr
	}

	registry := room.NewRegistry(clockwork.NewRealClock(), roomOptions(cfg), tableConfigs(cfg))

	c := cors.New(cors.Options{
		AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
	})

	srv := &http.Server{
		Addr:         listen,
		Handler:      loggingHandler(c.Handler(mux.NewMux(Version, registry))),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	logrus.WithField("addr", srv.Addr).Info("listening")
	logrus.Fatal(srv.ListenAndServe())
}

func roomOptions(cfg config.Config) room.Options {
	return room.Options{
		RevealDelay:  cfg.RevealDelay(),
		GracePeriod:  cfg.GracePeriod(),
		AutoBidDelay: cfg.AutoBidDelay(),
		BotThinkMin:  cfg.BotThinkMin(),
		BotThinkMax:  cfg.BotThinkMax(),
	}
}

func tableConfigs(cfg config.Config) []room.TableConfig {
	if len(cfg.Tables) == 0 {
		return room.DefaultTables()
	}

	configs := make([]room.TableConfig, len(cfg.Tables))
	for i, tbl := range cfg.Tables {
		configs[i] = room.TableConfig{
			ID:    tbl.ID,
			Name:  tbl.Name,
			Seats: tbl.Seats,
			Solo:  tbl.Solo,
		}
	}

	return configs
}

func loggingHandler(next http.Handler) http.Handler {
	if config.Instance().Log.DisableAccessLogs {
		return next
	}

	return handlers.CombinedLoggingHandler(os.Stdout, next)
}

func setupLogger() {
	if lvl := config.Instance().Log.Level; lvl != "" {
		level, err := logrus.ParseLevel(lvl)
		if err != nil {
			logrus.WithError(err).Fatal("could not parse level")
		}

		logrus.SetLevel(level)
	}

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}
