package packets

type CreateAlarmRequest struct {
	Time       string `json:"time" binding:"required"`
	Label      string `json:"label"`
	Enabled    *bool  `json:"enabled"`
	RepeatDays []int  `json:"repeat_days"`
	Intensity  int    `json:"intensity"`
}

type UpdateAlarmRequest struct {
	Time       string `json:"time" binding:"required"`
	Label      string `json:"label"`
	Enabled    *bool  `json:"enabled"`
	RepeatDays []int  `json:"repeat_days"`
	Intensity  int    `json:"intensity"`
}

type SetEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type TestCommandRequest struct {
	Intensity int    `json:"intensity"`
	Label     string `json:"label"`
}
