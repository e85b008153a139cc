package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-formfields/internal/config"
	"github.com/goliatone/go-formfields/internal/logging"
	"github.com/goliatone/go-formfields/pkg/cache"
	"github.com/goliatone/go-formfields/pkg/prompt"
	"github.com/goliatone/go-formfields/pkg/resolver"
	"github.com/goliatone/go-formfields/pkg/store"
)

// app is shared by the subcommands once PersistentPreRunE has loaded the
// configuration.
type app struct {
	v      *viper.Viper
	in     io.Reader
	out    io.Writer
	file   string
	cfg    *config.Config
	logger logging.Logger
	// prompts overrides the survey driver in tests.
	prompts prompt.Driver
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	return newAppCmd(&app{v: config.New(), in: in, out: out})
}

func newAppCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "formfields",
		Short:         "Infer, project and edit command field schemas",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.v, a.file)
			if err != nil {
				return err
			}
			a.cfg = cfg
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			a.logger = logger
			return nil
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.file, "config", "", "config file (default ./formfields.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("store-root", "", "node directory for the fs store")
	flags.String("store-url", "", "base URL for the http store")
	flags.String("cache", "", "attachment cache: memory, redis, badger")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("store.root", flags.Lookup("store-root"))
	_ = a.v.BindPFlag("store.url", flags.Lookup("store-url"))
	_ = a.v.BindPFlag("cache.kind", flags.Lookup("cache"))

	root.AddCommand(
		newInferCmd(a),
		newSlaveCmd(a),
		newResolveCmd(a),
		newEditCmd(a),
	)
	return root
}

// resolver builds the store, attachment cache and resolver from config. The
// returned close function releases the cache backend.
func (a *app) resolver() (*resolver.Resolver, func(), error) {
	s, err := a.store()
	if err != nil {
		return nil, nil, err
	}
	c, closeCache, err := a.cache()
	if err != nil {
		return nil, nil, err
	}
	r, err := resolver.New(s, resolver.WithCache(c), resolver.WithLogger(a.logger))
	if err != nil {
		closeCache()
		return nil, nil, err
	}
	return r, closeCache, nil
}

func (a *app) store() (store.Store, error) {
	sc := a.cfg.Store
	switch sc.Kind {
	case config.StoreHTTP:
		opts := []store.HTTPOption{store.WithRequestTimeout(sc.Timeout)}
		if sc.Token != "" {
			opts = append(opts, store.WithHeader("Authorization", "Bearer "+sc.Token))
		}
		return store.NewHTTP(sc.URL, opts...)
	default:
		return store.NewDir(sc.Root), nil
	}
}

func (a *app) cache() (cache.Cache, func(), error) {
	cc := a.cfg.Cache
	switch cc.Kind {
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cc.Redis.Addr,
			Password: cc.Redis.Password,
			DB:       cc.Redis.DB,
		})
		return cache.NewRedis(client, cc.Redis.Prefix, cc.TTL), func() { _ = client.Close() }, nil
	case config.CacheBadger:
		b, err := cache.OpenBadger(cc.Badger.Path, cc.TTL)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { _ = b.Close() }, nil
	default:
		return cache.NewMemory(), func() {}, nil
	}
}

func (a *app) writeJSON(value any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func (a *app) readFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(a.in)
	}
	return os.ReadFile(path)
}

func (a *app) driver(cmd *cobra.Command) prompt.Driver {
	if a.prompts != nil {
		return a.prompts
	}
	return prompt.NewSurveyDriver(cmd.ErrOrStderr())
}

func mode(slave bool) resolver.Mode {
	if slave {
		return resolver.Slave
	}
	return resolver.Master
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
