package handlers

// WelcomeResponse is the plain text greeting.
type WelcomeResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// ListErrorsResponse lists stored malformed reports.
type ListErrorsResponse struct {
	Body struct {
		Errors []string `doc:"Raw data strings that failed validation" json:"errors"`
	}
}

// ClearErrorsResponse confirms the error buffer was emptied.
type ClearErrorsResponse struct {
	Body struct {
		Message string `example:"Error buffer cleared successfully" json:"message"`
	}
}

// TemperatureRequest carries one device report.
type TemperatureRequest struct {
	Body struct {
		Data *string `doc:"Report formatted as <device_id>:<epoch_ms>:'Temperature':<value>" example:"365951380:1640995229697:'Temperature':58.48256793121914" json:"data,omitempty" required:"false"`
	}
}

// TemperatureResponse is the outcome of checking a report.
type TemperatureResponse struct {
	Status int
	Body   TemperatureResult
}

// TemperatureResult reports either a malformed input or the over-temperature verdict.
type TemperatureResult struct {
	Malformed     bool   `json:"malformed,omitempty"`
	OverTemp      *bool  `json:"overtemp,omitempty"`
	DeviceID      string `json:"device_id,omitempty"`
	FormattedTime string `json:"formatted_time,omitempty"`
}
