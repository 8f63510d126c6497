package appcontext

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/infra/checkout"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/redis_client"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/kv"
	"github.com/RoyceAzure/lab/storefront/internal/logger"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/ratelimit"
	"github.com/RoyceAzure/lab/storefront/internal/pricing"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type ApplicationContext struct {
	Cf     *config.Config
	Logger *zerolog.Logger

	Store           kv.Store
	Engine          *pricing.Engine
	Observers       *service.Observers
	EventProducer   *producer.EventProducer
	ArchiveObserver *service.ArchiveObserver
	ArchiveDB       *gorm.DB
	// 未啟用 postgres 時為 nil
	OrderArchive    service.OrderArchiveReader
	CheckoutLimiter ratelimit.Limiter

	CatalogService  *service.CatalogService
	CartService     *service.CartService
	OrderService    *service.OrderService
	CheckoutService *service.CheckoutService

	logSink *logger.KafkaWriter
	closers []func() error
}

type Option func(*ApplicationContext)

// WithStore 測試用，略過 storage 設定
func WithStore(store kv.Store) Option {
	return func(app *ApplicationContext) {
		app.Store = store
	}
}

func NewApplicationContext(ctx context.Context, cf *config.Config, opts ...Option) (*ApplicationContext, error) {
	app := &ApplicationContext{
		Cf: cf,
	}
	for _, opt := range opts {
		opt(app)
	}
	if err := app.Init(ctx); err != nil {
		// 已建立的資源要釋放
		_ = app.closeAll()
		return nil, err
	}
	return app, nil
}

func (app *ApplicationContext) Init(ctx context.Context) error {
	steps := []func(ctx context.Context) error{
		app.setUpLogger,
		app.setUpPricing,
		app.setUpStore,
		app.setUpObservers,
		app.setUpEventProducer,
		app.setUpArchive,
		app.setUpServices,
		app.restoreState,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (app *ApplicationContext) setUpLogger(ctx context.Context) error {
	opts := logger.Options{
		Moduler: app.Cf.ModulerName,
		Level:   app.Cf.LogLevel,
		Pretty:  app.Cf.LogPretty,
	}
	brokers := app.Cf.KafkaBrokerList()
	if len(brokers) > 0 && app.Cf.KafkaLogTopic != "" {
		w, err := producer.NewKafkaWriter(producer.Config{
			Brokers: brokers,
			Topic:   app.Cf.KafkaLogTopic,
		})
		if err != nil {
			return fmt.Errorf("setup log sink: %w", err)
		}
		app.logSink = logger.NewKafkaWriter(w)
		opts.Writers = append(opts.Writers, app.logSink)
	}

	l := logger.New(opts)
	app.Logger = &l
	app.Logger.Info().Str("storage", string(app.Cf.StorageDriver)).Str("checkout_mode", string(app.Cf.CheckoutMode)).Msg("logger ready")
	return nil
}

func (app *ApplicationContext) setUpPricing(ctx context.Context) error {
	policy, err := app.Cf.PricingPolicy()
	if err != nil {
		return err
	}
	app.Engine = pricing.NewEngine(policy)
	return nil
}

func (app *ApplicationContext) setUpStore(ctx context.Context) error {
	if app.Store != nil {
		return nil
	}
	switch app.Cf.StorageDriver {
	case config.StorageRedis:
		app.Logger.Info().Str("addr", app.Cf.RedisAddr).Msg("Start setup redis storage")
		client, err := redis_client.GetRedisClient(app.Cf.RedisAddr,
			redis_client.WithPassword(app.Cf.RedisPassword),
			redis_client.WithDB(app.Cf.RedisDB),
			redis_client.WithPoolSize(app.Cf.RedisPoolSize),
		)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := redis_client.Ping(pingCtx, client); err != nil {
			return fmt.Errorf("connect redis %s: %w", app.Cf.RedisAddr, err)
		}
		app.Store = kv.NewRedisStore(client, app.Cf.StoragePrefix)
		app.closers = append(app.closers, redis_client.CloseAll)
	default:
		app.Logger.Warn().Msg("using in-memory storage, state is lost on restart")
		app.Store = kv.NewMemoryStore()
	}
	return nil
}

func (app *ApplicationContext) setUpObservers(ctx context.Context) error {
	app.Observers = service.NewObservers(service.NewLogObserver(app.Logger))
	return nil
}

func (app *ApplicationContext) setUpEventProducer(ctx context.Context) error {
	brokers := app.Cf.KafkaBrokerList()
	if len(brokers) == 0 {
		app.Logger.Info().Msg("kafka disabled, domain events are not published")
		return nil
	}
	w, err := producer.NewKafkaWriter(producer.Config{
		Brokers:       brokers,
		Topic:         app.Cf.KafkaEventTopic,
		RetryAttempts: 3,
	})
	if err != nil {
		return fmt.Errorf("setup event producer: %w", err)
	}
	app.EventProducer = producer.NewEventProducer(w, app.Logger)
	app.Observers.Register(service.NewEventObserver(app.EventProducer))
	return nil
}

func (app *ApplicationContext) setUpArchive(ctx context.Context) error {
	if app.Cf.DbHost == "" {
		return nil
	}
	app.Logger.Info().Str("host", app.Cf.DbHost).Msg("Start setup order archive")
	conn, err := db.GetDbConn(db.ConnConfig{
		Name:            app.Cf.DbName,
		Host:            app.Cf.DbHost,
		Port:            app.Cf.DbPort,
		User:            app.Cf.DbUser,
		Password:        app.Cf.DbPas,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("connect order archive: %w", err)
	}
	if err := db.Migrate(conn); err != nil {
		return fmt.Errorf("migrate order archive: %w", err)
	}
	app.ArchiveDB = conn
	repo := db.NewOrderArchiveRepo(conn)
	app.OrderArchive = repo
	app.ArchiveObserver = service.NewArchiveObserver(repo, app.Logger)
	app.Observers.Register(app.ArchiveObserver)
	return nil
}

func (app *ApplicationContext) setUpServices(ctx context.Context) error {
	products := service.DefaultProducts()
	if app.Cf.CatalogFile != "" {
		loaded, err := config.LoadCatalog(app.Cf.CatalogFile)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		products = loaded
		app.Logger.Info().Str("file", app.Cf.CatalogFile).Int("products", len(products)).Msg("catalog loaded")
	}
	app.CatalogService = service.NewCatalogService(products)
	app.CartService = service.NewCartService(app.Store, app.Engine, app.Observers, app.Logger)
	app.OrderService = service.NewOrderService(app.Store, app.Observers, app.Logger)

	opts := []service.CheckoutServiceOption{
		service.WithDefaultMode(app.Cf.CheckoutMode),
		service.WithRemoteTimeout(app.Cf.CheckoutTimeout),
	}
	if app.Cf.CheckoutAPIURL != "" {
		opts = append(opts, service.WithSessionClient(checkout.NewClient(app.Cf.CheckoutAPIURL, app.Cf.CheckoutTimeout)))
	}
	app.CheckoutService = service.NewCheckoutService(app.CartService, app.OrderService, app.Engine, app.Store, app.Logger, opts...)

	if app.Cf.CheckoutRateLimit > 0 {
		app.CheckoutLimiter = ratelimit.NewFixedWindow(ratelimit.Config{
			Capacity: app.Cf.CheckoutRateLimit,
			Window:   time.Minute,
		})
	}
	return nil
}

// restoreState cart 與 orders 各自使用不同 key，可同時讀取
func (app *ApplicationContext) restoreState(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.CartService.Load(gctx)
	})
	g.Go(func() error {
		return app.OrderService.Load(gctx)
	})
	return g.Wait()
}

// ApplyConfig 設定檔熱更新，只替換定價規則
func (app *ApplicationContext) ApplyConfig(cf *config.Config) {
	policy, err := cf.PricingPolicy()
	if err != nil {
		app.Logger.Error().Err(err).Msg("ignore invalid pricing config")
		return
	}
	app.Engine.SetPolicy(policy)
	app.Logger.Info().
		Str("coupon", policy.CouponCode).
		Bool("tax_enabled", policy.TaxEnabled).
		Msg("pricing policy reloaded")
}

func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	app.Logger.Info().Msg("Start application shutdown")

	done := make(chan error, 1)
	go func() {
		var errs []error
		if err := app.CartService.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush cart: %w", err))
		}
		if app.ArchiveObserver != nil {
			app.ArchiveObserver.Wait()
		}
		if err := app.closeAll(); err != nil {
			errs = append(errs, err)
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		if err == nil {
			app.Logger.Info().Msg("Application shutdown complete")
		}
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}

func (app *ApplicationContext) closeAll() error {
	var errs []error
	if app.EventProducer != nil {
		if err := app.EventProducer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event producer: %w", err))
		}
	}
	if app.ArchiveDB != nil {
		if sqlDB, err := app.ArchiveDB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close order archive: %w", err))
			}
		}
	}
	for _, c := range app.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	// logger 最後關閉
	if app.logSink != nil {
		if err := app.logSink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log sink: %w", err))
		}
	}
	return errors.Join(errs...)
}
