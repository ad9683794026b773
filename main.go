package main

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"frazludo/internal/catalog"
	"frazludo/internal/game"
)

func main() {
	cfg := loadConfig()
	setupLogging(cfg.LogLevel, cfg.IsProduction)
	logInfo("Starting Frazludo in %s mode", map[bool]string{true: "production", false: "development"}[cfg.IsProduction])

	cat := catalog.Default()
	logInfo("Loaded %d sentences in %d categories", cat.Len(), len(cat.Categories()))

	st, err := openStore(cfg)
	if err != nil {
		logFatal("Failed to open progress store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logWarn("Failed to close progress store: %v", err)
		}
	}()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	app := newApp(cfg, cat, st)
	router := app.setupRouter()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := app.serve(ctx, router); err != nil {
		logWarn("Server stopped with error: %v", err)
		return
	}
	logInfo("Server shutdown complete")
}

// templateFuncs are available to every template.
var templateFuncs = template.FuncMap{
	"hasPrefix": strings.HasPrefix,
	"add":       func(a, b int) int { return a + b },
	"statusIs": func(s game.Status, want string) bool {
		return string(s) == want
	},
}

// setupRouter builds the engine with middleware, templates and routes.
func (app *App) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestIDMiddleware(), accessLogMiddleware())

	router.Use(gzipMiddleware())

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}
	router.Use(app.cacheHeadersMiddleware())

	router.SetFuncMap(templateFuncs)
	if app.IsProduction && dirExists("dist") {
		logInfo("Serving assets from dist/ directory")
		router.LoadHTMLGlob("dist/templates/*.html")
		router.Static("/static", "./dist/static")
	} else {
		router.LoadHTMLGlob("templates/*.html")
		router.Static("/static", "./static")
	}

	limited := app.rateLimitMiddleware()

	router.GET(RouteHome, app.homeHandler)
	router.GET(RoutePlay, app.playHandler)
	router.GET(RouteGame, app.gameHandler)
	router.GET(RouteGame+"/state", app.gameStateHandler)
	router.POST(RouteGame+"/guess", limited, app.guessHandler)
	router.POST(RouteGame+"/hint", limited, app.hintHandler)
	router.POST(RouteGame+"/next", limited, app.nextHandler)
	router.POST(RouteGame+"/retry", limited, app.retryHandler)
	router.POST(RouteGame+"/home", limited, app.leaveHandler)
	router.POST(RouteTheme, limited, app.themeHandler)
	router.POST(RouteResetProgress, limited, app.resetProgressHandler)
	router.GET(RouteHealth, app.healthzHandler)
	router.NoRoute(app.notFoundHandler)

	return router
}

// gzipMiddleware compresses everything except images and fonts.
func gzipMiddleware() gin.HandlerFunc {
	return ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif"}),
		ginGzip.WithExcludedPaths([]string{"/static/fonts"}))
}

// serve runs the HTTP server and the janitor until ctx is cancelled, then
// shuts both down.
func (app *App) serve(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{
		Addr:              ":" + app.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logInfo("Server starting on http://localhost:%s", app.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return app.runJanitor(gctx, app.CleanupInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		logInfo("Shutting down server gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
