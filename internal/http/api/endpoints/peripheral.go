package endpoints

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sunrise-labs/wakelink/internal/dispatch"
	"github.com/sunrise-labs/wakelink/internal/http/api"
	"github.com/sunrise-labs/wakelink/internal/http/api/packets"
	"github.com/sunrise-labs/wakelink/internal/redis"
)

type PeripheralController struct {
	dispatcher *dispatch.Dispatcher
}

func NewPeripheralController(dispatcher *dispatch.Dispatcher) *PeripheralController {
	return &PeripheralController{dispatcher: dispatcher}
}

func PeripheralModule(dispatcher *dispatch.Dispatcher) api.Module {
	ctl := NewPeripheralController(dispatcher)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/peripheral/status", ctl.status)
		c.POST("/peripheral/test", ctl.test)
	})
}

// status serves the last link-watcher probe result from the cache; it never
// probes the peripheral itself.
func (c *PeripheralController) status(ctx *gin.Context) (any, *api.APIError) {
	state := dispatch.LinkState{Up: c.dispatcher.LinkUp()}
	if cached := redis.Get(ctx.Request.Context(), redis.PeripheralStatusKey); cached != "" {
		if err := json.Unmarshal([]byte(cached), &state); err != nil {
			return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "corrupt cached peripheral status"}
		}
	}
	return state, nil
}

// test sends a one-off TRIGGER command and waits briefly for the outcome, so
// the mobile app can verify the link end to end.
func (c *PeripheralController) test(ctx *gin.Context) (any, *api.APIError) {
	var request packets.TestCommandRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if request.Intensity < 1 || request.Intensity > 10 {
		request.Intensity = 5
	}
	if request.Label == "" {
		request.Label = "Test"
	}

	text := dispatch.CommandText(request.Intensity, dispatch.ActionTrigger, request.Label)
	results := make(chan dispatch.Result, 1)
	c.dispatcher.SendMessage(text, func(r dispatch.Result) { results <- r })

	select {
	case r := <-results:
		response := packets.DispatchResponse{Sent: r.Err == nil, Command: text, Body: r.Body}
		if r.Err != nil {
			response.Error = r.Err.Error()
		}
		return response, nil
	case <-time.After(dispatch.DefaultTimeout + time.Second):
		return nil, &api.APIError{Code: http.StatusGatewayTimeout, Message: "no dispatch outcome"}
	}
}
