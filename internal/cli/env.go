package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/cache"
	"github.com/fragmede/purse/internal/config"
	"github.com/fragmede/purse/internal/logging"
	"github.com/fragmede/purse/internal/session"
)

// env is everything a command needs to talk to the API as the stored user.
type env struct {
	cfg    config.Config
	log    *zap.Logger
	db     *cache.DB
	store  *session.Store
	jar    *api.Jar
	client *api.Client

	// onUnauthorized runs after the local session has been cleared.
	onUnauthorized func()
}

func loadConfig(cmd *cobra.Command, opts *RootOptions) (config.Config, error) {
	v := viper.New()
	if f := cmd.Flags().Lookup("api-url"); f != nil {
		if err := v.BindPFlag("api_url", f); err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.LoadWith(v, opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// openEnv loads config, opens the cache and builds a client whose 401
// handling clears the stored session and cookies.
func openEnv(cmd *cobra.Command, opts *RootOptions) (*env, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	log, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := cache.Open(cfg.DBPath)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	store, err := session.NewStore(db.Session(), log.Named("session"))
	if err != nil {
		db.Close()
		return nil, err
	}
	jar, err := api.NewJar(db.Session(), log.Named("jar"))
	if err != nil {
		db.Close()
		return nil, err
	}

	e := &env{cfg: cfg, log: log, db: db, store: store, jar: jar}
	e.client = api.NewClient(api.Options{
		BaseURL:        cfg.APIURL,
		Timeout:        cfg.RequestTimeout,
		Tokens:         store,
		Jar:            jar,
		OnUnauthorized: e.unauthorized,
		Log:            log.Named("api"),
	})
	return e, nil
}

// unauthorized is the interceptor's 401 hook: forced logout, then whatever
// the front end wants to do about it.
func (e *env) unauthorized() {
	if err := e.store.Logout(); err != nil {
		e.log.Warn("clearing session after 401", zap.Error(err))
	}
	e.jar.Clear()
	if e.onUnauthorized != nil {
		e.onUnauthorized()
	}
}

func (e *env) Close() {
	e.db.Close()
	e.log.Sync()
}
