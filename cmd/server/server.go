package main

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/ytakahashi/todo-api/internal/config"
	"github.com/ytakahashi/todo-api/internal/docs"
	"github.com/ytakahashi/todo-api/internal/handlers"
	"github.com/ytakahashi/todo-api/internal/logging"
	"github.com/ytakahashi/todo-api/internal/services"
)

func newServer(cfg *config.Config, store services.TodoStore, log *logrus.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(logging.RequestLogger(log))
	e.Use(middleware.Recover())

	handlers.NewTodoHandler(store, log).Register(e)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.IsDevelopment() {
		e.GET("/swagger", func(c echo.Context) error {
			return c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})
		e.GET("/swagger/*", echoSwagger.EchoWrapHandler(
			echoSwagger.InstanceName(docs.SwaggerInfo.InstanceName()),
			echoSwagger.DocExpansion("list"),
		))
	}

	return e
}
