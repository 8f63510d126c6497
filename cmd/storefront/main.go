package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/handler"
	"github.com/RoyceAzure/lab/storefront/internal/api/router"
	"github.com/RoyceAzure/lab/storefront/internal/appcontext"
	"github.com/RoyceAzure/lab/storefront/internal/config"
)

func main() {
	envPath := flag.String("env", ".env", "path to .env config file")
	flag.Parse()

	loader, err := config.NewLoader(*envPath)
	if err != nil {
		log.Fatal(err)
	}

	app, err := appcontext.NewApplicationContext(context.Background(), loader.Config())
	if err != nil {
		log.Fatal(err)
	}
	loader.OnChange(app.ApplyConfig)
	loader.OnReloadError(func(err error) {
		app.Logger.Error().Err(err).Msg("config reload rejected, keep previous config")
	})

	// 初始化 handler
	server := api.NewServer(
		handler.NewCatalogHandler(app.CatalogService),
		handler.NewCartHandler(app.CartService, app.CatalogService, app.Engine),
		handler.NewCheckoutHandler(app.CheckoutService, app.Engine),
		handler.NewOrderHandler(app.OrderService, app.Engine, app.OrderArchive),
	)

	// 設置路由
	r := router.SetupRouter(server, app.CheckoutLimiter, app.Logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", app.Cf.ServerPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 設置訊號監聽
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	shutDownCompleted := make(chan struct{}, 1)
	go func() {
		<-sigChan
		app.Logger.Info().Msg("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error().Err(err).Msg("Server shutdown error")
		}

		// http 停止後才 flush，避免 flush 後又有寫入
		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Printf("Application shutdown error: %v", err)
		}

		shutDownCompleted <- struct{}{}
	}()

	app.Logger.Info().Str("addr", srv.Addr).Msg("Server starting")
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
	<-shutDownCompleted
	log.Printf("closed completed")
}
