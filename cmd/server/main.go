package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bertrandmartel/authgateway/gw/config"
	"github.com/bertrandmartel/authgateway/gw/credential"
	"github.com/bertrandmartel/authgateway/gw/handlers/auth"
	"github.com/bertrandmartel/authgateway/gw/handshake"
	"github.com/bertrandmartel/authgateway/gw/session"
	"github.com/go-redis/redis/v7"
	"github.com/labstack/echo/v4"
	mw "github.com/labstack/echo/v4/middleware"
	"gopkg.in/go-playground/validator.v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
		return
	}
	log.Printf("[GW] environment %v\n", cfg.Environment)
	log.Printf("[GW] listening on :%v\n", cfg.Port)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping().Err(); err != nil {
		log.Fatal(err)
		return
	}

	e := echo.New()
	e.HideBanner = true
	UseCommonMiddleware(e, cfg)
	e.HTTPErrorHandler = errorHandler(cfg)

	routes(e, cfg, redisClient)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("[GW] shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
	log.Println("[GW] server closed")
}

func routes(e *echo.Echo, cfg *config.Config, redisClient *redis.Client) {
	store := session.NewRedisStore(redisClient)
	coordinator := handshake.NewCoordinator(cfg)
	codec := credential.NewCodec(cfg.JWTSecret, cfg.JWTExpiration)

	handler := auth.NewHandler(cfg, coordinator, codec, store)
	handler.RegisterRoutes(e)

	e.GET("/api/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":      "ok",
			"environment": cfg.Environment,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	})
}

//middleware for validation
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func UseCommonMiddleware(e *echo.Echo, cfg *config.Config) {
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mw.LoggerWithConfig(mw.LoggerConfig{
		Format: "${remote_ip} - - ${time_rfc3339_nano} \"${method} ${uri} ${protocol}\" ${status} ${bytes_out} \"${referer}\" \"${user_agent}\"\n",
	}))
	e.Use(mw.Recover())
	e.Use(mw.CORSWithConfig(mw.CORSConfig{
		AllowOrigins:     allowedOrigins(cfg),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
}

func allowedOrigins(cfg *config.Config) []string {
	origins := []string{
		"http://localhost:5173",
		"http://localhost:3000",
	}
	if cfg.FrontendURLDev != "" {
		origins = append(origins, cfg.FrontendURLDev)
	}
	if cfg.FrontendURLProd != "" {
		origins = append(origins, cfg.FrontendURLProd)
	}
	return origins
}

// errorHandler maps anything escaping a handler to the JSON error shape.
// Error detail goes to the response only outside production.
func errorHandler(cfg *config.Config) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		status := http.StatusInternalServerError
		message := "Internal Server Error"
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			message = fmt.Sprintf("%v", he.Message)
		}
		log.Printf("[ERROR] %v : %v %v : %v\n", time.Now().UTC().Format(time.RFC3339), c.Request().Method, c.Request().URL.Path, err)
		if c.Response().Committed {
			return
		}
		body := map[string]interface{}{
			"status":  status,
			"message": message,
		}
		if !cfg.IsProduction() {
			body["details"] = err.Error()
		}
		if jsonErr := c.JSON(status, map[string]interface{}{"error": body}); jsonErr != nil {
			c.Logger().Error(jsonErr)
		}
	}
}
