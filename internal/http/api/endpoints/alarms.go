package endpoints

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sunrise-labs/wakelink/internal/alarms"
	"github.com/sunrise-labs/wakelink/internal/db"
	"github.com/sunrise-labs/wakelink/internal/http/api"
	"github.com/sunrise-labs/wakelink/internal/http/api/packets"
	"github.com/sunrise-labs/wakelink/internal/model"
)

type AlarmController struct {
	service *alarms.Service
}

func NewAlarmController(service *alarms.Service) *AlarmController {
	return &AlarmController{service: service}
}

func AlarmModule(service *alarms.Service) api.Module {
	ctl := NewAlarmController(service)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/alarms", ctl.listAlarms)
		c.POST("/alarms", ctl.createAlarm)
		c.GET("/alarms/:id", ctl.getAlarm)
		c.PUT("/alarms/:id", ctl.updateAlarm)
		c.DELETE("/alarms/:id", ctl.deleteAlarm)
		c.PATCH("/alarms/:id/enabled", ctl.setEnabled)
		c.POST("/alarms/:id/stop", ctl.stopAlarm)
		c.GET("/alarms/:id/events", ctl.listEvents)
	})
}

// alarmFromRequest maps the request body onto a model.Alarm. Enabled defaults
// to true for new alarms, matching the mobile UI.
func alarmFromRequest(id, timeOfDay, label string, enabled *bool, repeatDays []int, intensity int) (model.Alarm, *api.APIError) {
	tod, err := model.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return model.Alarm{}, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	days := make([]time.Weekday, 0, len(repeatDays))
	for _, d := range repeatDays {
		if d < 0 || d > 6 {
			return model.Alarm{}, &api.APIError{Code: http.StatusBadRequest, Message: "repeat_days entries must be 0..6"}
		}
		days = append(days, time.Weekday(d))
	}
	a := model.Alarm{
		ID:         id,
		Time:       tod,
		Label:      label,
		Enabled:    enabled == nil || *enabled,
		RepeatDays: days,
		Intensity:  intensity,
	}
	return a, nil
}

func serviceError(err error) *api.APIError {
	var persistence *db.PersistenceError
	switch {
	case errors.Is(err, alarms.ErrNotFound):
		return &api.APIError{Code: http.StatusNotFound, Message: "alarm not found"}
	case errors.Is(err, alarms.ErrExists):
		return &api.APIError{Code: http.StatusConflict, Message: "alarm already exists"}
	case errors.As(err, &persistence):
		return &api.APIError{Code: http.StatusInternalServerError, Message: "could not persist alarm set"}
	default:
		return &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
}

func (c *AlarmController) listAlarms(ctx *gin.Context) (any, *api.APIError) {
	list := c.service.List()
	response := make([]packets.AlarmResponse, 0, len(list))
	for _, a := range list {
		response = append(response, packets.NewAlarmResponse(a, ""))
	}
	return response, nil
}

func (c *AlarmController) createAlarm(ctx *gin.Context) (any, *api.APIError) {
	var request packets.CreateAlarmRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	a, apiErr := alarmFromRequest("", request.Time, request.Label, request.Enabled, request.RepeatDays, request.Intensity)
	if apiErr != nil {
		return nil, apiErr
	}
	created, err := c.service.Add(a)
	if err != nil {
		return nil, serviceError(err)
	}
	state := alarms.Disarmed
	if created.Enabled {
		state = alarms.Armed
	}
	return packets.NewAlarmResponse(created, state.String()), nil
}

func (c *AlarmController) getAlarm(ctx *gin.Context) (any, *api.APIError) {
	a, state, err := c.service.Get(ctx.Param("id"))
	if err != nil {
		return nil, serviceError(err)
	}
	return packets.NewAlarmResponse(a, state.String()), nil
}

func (c *AlarmController) updateAlarm(ctx *gin.Context) (any, *api.APIError) {
	var request packets.UpdateAlarmRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	a, apiErr := alarmFromRequest(ctx.Param("id"), request.Time, request.Label, request.Enabled, request.RepeatDays, request.Intensity)
	if apiErr != nil {
		return nil, apiErr
	}
	updated, err := c.service.Update(a)
	if err != nil {
		return nil, serviceError(err)
	}
	return packets.NewAlarmResponse(updated, ""), nil
}

func (c *AlarmController) deleteAlarm(ctx *gin.Context) (any, *api.APIError) {
	if err := c.service.Delete(ctx.Param("id")); err != nil {
		return nil, serviceError(err)
	}
	return gin.H{"message": "deleted"}, nil
}

func (c *AlarmController) setEnabled(ctx *gin.Context) (any, *api.APIError) {
	var request packets.SetEnabledRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	updated, err := c.service.SetEnabled(ctx.Param("id"), *request.Enabled)
	if err != nil {
		return nil, serviceError(err)
	}
	return packets.NewAlarmResponse(updated, ""), nil
}

func (c *AlarmController) stopAlarm(ctx *gin.Context) (any, *api.APIError) {
	stopped, err := c.service.StopAlarm(ctx.Param("id"))
	if err != nil {
		return nil, serviceError(err)
	}
	return packets.NewAlarmResponse(stopped, alarms.Disarmed.String()), nil
}

func (c *AlarmController) listEvents(ctx *gin.Context) (any, *api.APIError) {
	events, err := c.service.Events(ctx.Param("id"), 50)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list events"}
	}
	response := make([]packets.AlarmEventResponse, 0, len(events))
	for _, e := range events {
		response = append(response, packets.NewAlarmEventResponse(e))
	}
	return response, nil
}
