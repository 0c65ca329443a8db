package api

type LoginRequest struct {
	Secret string `json:"secret"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type TriggerRequest struct {
	Source          string `json:"source"`
	SourceType      string `json:"source_type"` // pdf, html, txt
	Topic           string `json:"topic"`
	Language        string `json:"language,omitempty"`
	Style           string `json:"style,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

type TriggerResponse struct {
	JobID string `json:"job_id"`
}

type JobBrief struct {
	JobID        string `json:"job_id"`
	Topic        string `json:"topic"`
	Source       string `json:"source"`
	Status       string `json:"status"`
	CurrentStage string `json:"current_stage"`
	TriggerType  string `json:"trigger_type"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time,omitempty"`
}

type StageBrief struct {
	Stage       string `json:"stage"`
	Status      string `json:"status"`
	Artifact    string `json:"artifact,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
	ErrorDetail string `json:"error_detail,omitempty"`
	Retries     int    `json:"retries"`
	DurationMs  int64  `json:"duration_ms"`
}

type JobDetail struct {
	Job    JobBrief     `json:"job"`
	Stages []StageBrief `json:"stages"`
}
