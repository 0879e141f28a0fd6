package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sunrise-labs/wakelink/internal/alarms"
	"github.com/sunrise-labs/wakelink/internal/dispatch"
	"github.com/sunrise-labs/wakelink/internal/http/api"
	"github.com/sunrise-labs/wakelink/internal/http/api/endpoints"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, service *alarms.Service, dispatcher *dispatch.Dispatcher) {
	// CORS: the mobile app's webview origin is not known ahead of time
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
	},
		endpoints.AlarmModule(service),
		endpoints.PeripheralModule(dispatcher),
	)
}
