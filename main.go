package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yomuhub/yomu/cache"
	"github.com/yomuhub/yomu/config"
	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/progress"
	"github.com/yomuhub/yomu/recommend"
	"github.com/yomuhub/yomu/server"
	"github.com/yomuhub/yomu/store"
	"github.com/yomuhub/yomu/store/db"
	"github.com/yomuhub/yomu/util"
	"github.com/yomuhub/yomu/worker"
	"github.com/yomuhub/yomu/ws"
)

const greetingBanner = `
██    ██  ██████  ███    ███ ██    ██
 ██  ██  ██    ██ ████  ████ ██    ██
  ████   ██    ██ ██ ████ ██ ██    ██
   ██    ██    ██ ██  ██  ██ ██    ██
   ██     ██████  ██      ██  ██████
`

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:   "yomu",
		Short: "Yomu is a manga reading and publishing platform",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			appDb, err := db.NewDB(config.Opts.DSN, "app")
			if err != nil {
				log.Error("Error connecting to database", zap.Error(err))
				return
			}
			defer appDb.Close()
			if err := appDb.Migrate(ctx); err != nil {
				log.Error("Error migrating database", zap.Error(err))
				return
			}

			catalogDb, err := db.NewDB(config.Opts.CatalogDSN, "catalog")
			if err != nil {
				log.Error("Error connecting to catalog database", zap.Error(err))
				return
			}
			defer catalogDb.Close()
			if err := catalogDb.Migrate(ctx); err != nil {
				log.Error("Error migrating catalog database", zap.Error(err))
				return
			}

			s := store.NewStore(appDb.DB, catalogDb.DB)
			if err := s.Ping(); err != nil {
				log.Error("Error pinging database", zap.Error(err))
				return
			}

			recCache, err := cache.New(ctx)
			if err != nil {
				log.Error("Error setting up cache", zap.Error(err))
				return
			}

			hub := ws.NewHub()
			go hub.Run()

			extractPool := worker.NewExtractPool(s, config.Opts.WorkerPoolSize)
			uploadPool := worker.NewUploadPool(s, extractPool, config.Opts.WorkerPoolSize)

			progressService := progress.NewService(s)
			engine := recommend.NewEngine(s, recCache, config.Opts.RecommendationTTL)

			fmt.Print(greetingBanner)
			httpServer, err := server.StartServer(ctx, s, progressService, engine, hub, uploadPool)
			if err != nil {
				log.Error("Error starting server", zap.Error(err))
				return
			}

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig

			log.Info("Shutting down")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				log.Error("Error shutting down server", zap.Error(err))
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file")
	rootCmd.PersistentFlags().String("host", "", "host to listen on")
	rootCmd.PersistentFlags().Int("port", 0, "port to listen on")
	rootCmd.PersistentFlags().String("data", "", "data directory")

	cobra.OnInitialize(func() {
		config.GetDefaultOptions()
		if configFile != "" {
			if _, err := config.ParseFile(configFile); err != nil {
				fmt.Fprintln(os.Stderr, "Error parsing config file:", err)
				os.Exit(1)
			}
		}
		if v, _ := rootCmd.PersistentFlags().GetString("host"); v != "" {
			config.Opts.Host = v
		}
		if v, _ := rootCmd.PersistentFlags().GetInt("port"); v != 0 {
			config.Opts.Port = v
		}
		if v, _ := rootCmd.PersistentFlags().GetString("data"); v != "" {
			config.Opts.Data = v
		}
		if _, err := config.GetConfig(); err != nil {
			fmt.Fprintln(os.Stderr, "Error loading config:", err)
			os.Exit(1)
		}
		if config.Opts.JWTSecret == "" {
			// Sessions will not survive a restart without a configured secret.
			secret, err := util.RandomString(32)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error generating JWT secret:", err)
				os.Exit(1)
			}
			config.Opts.JWTSecret = secret
		}

		log.Logger = log.NewLogger()
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if log.Logger != nil {
		log.Logger.Sync()
	}
}
