// Package server exposes the HTTP control surface: job triggering,
// history queries and a websocket progress feed.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/common"
	"github.com/levi616boop/AI-content-gen/internal/pipeline"
	"github.com/levi616boop/AI-content-gen/internal/server/middleware"
	"github.com/levi616boop/AI-content-gen/internal/store/dao"
	"github.com/levi616boop/AI-content-gen/internal/store/model"
	"github.com/levi616boop/AI-content-gen/pkg/api"
)

var validSourceTypes = map[string]bool{"pdf": true, "image": true, "html": true, "txt": true}

// Trigger starts a pipeline run for the job, asynchronously.
type Trigger func(job *pipeline.Job)

type Server struct {
	secret   string
	trigger  Trigger
	jobs     dao.JobDao
	stages   dao.StageExecDao
	hub      *Hub
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func New(secret string, trigger Trigger, hub *Hub, log *zap.Logger) *Server {
	return &Server{
		secret:  secret,
		trigger: trigger,
		jobs:    dao.NewJobDao(),
		stages:  dao.NewStageExecDao(),
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/login", s.Login)
	r.GET("/ws", s.Websocket)

	authed := r.Group("/", middleware.JWTAuthMiddleware(s.secret))
	authed.POST("/jobs", s.TriggerJob)
	authed.GET("/jobs", s.ListJobs)
	authed.GET("/jobs/:id", s.JobDetail)
	authed.GET("/jobs/:id/stages", s.JobStages)
	return r
}

func (s *Server) Login(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, common.NewErrNo(common.RequestInvalid))
		return
	}
	if req.Secret != s.secret {
		common.Error(c, common.NewErrNo(common.SecretInvalid))
		return
	}
	token, err := middleware.GenerateJWT(s.secret, "operator")
	if err != nil {
		common.Error(c, err)
		return
	}
	c.Header("Authorization", "Bearer "+token)
	common.Success(c, api.LoginResponse{Token: token})
}

func (s *Server) TriggerJob(c *gin.Context) {
	var req api.TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, common.NewErrNo(common.RequestInvalid))
		return
	}
	if req.Source == "" || !validSourceTypes[req.SourceType] {
		common.Error(c, common.NewErrNo(common.RequestInvalid))
		return
	}

	job := pipeline.NewJob(req.Source, req.SourceType, req.Topic)
	job.Language = req.Language
	job.Style = req.Style
	job.TargetDuration = req.DurationSeconds

	s.trigger(job)
	s.log.Info("job triggered via api", zap.String("job", job.ID), zap.String("source", job.Source))
	common.Success(c, api.TriggerResponse{JobID: job.ID})
}

func (s *Server) ListJobs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	jobs, err := s.jobs.ListRecent(c, limit)
	if err != nil {
		common.Error(c, common.NewErrNo(common.GetHistoryFail))
		return
	}
	briefs := make([]api.JobBrief, 0, len(jobs))
	for _, j := range jobs {
		briefs = append(briefs, toBrief(j))
	}
	common.Success(c, briefs)
}

func (s *Server) JobDetail(c *gin.Context) {
	job, err := s.jobs.GetByJobID(c, c.Param("id"))
	if err != nil {
		common.Error(c, err)
		return
	}
	execs, err := s.stages.GetByJobID(c, job.JobID)
	if err != nil {
		common.Error(c, common.NewErrNo(common.GetHistoryDetailFail))
		return
	}
	detail := api.JobDetail{Job: toBrief(job)}
	for _, e := range execs {
		detail.Stages = append(detail.Stages, toStageBrief(e))
	}
	common.Success(c, detail)
}

func (s *Server) JobStages(c *gin.Context) {
	execs, err := s.stages.GetByJobID(c, c.Param("id"))
	if err != nil {
		common.Error(c, common.NewErrNo(common.GetHistoryDetailFail))
		return
	}
	briefs := make([]api.StageBrief, 0, len(execs))
	for _, e := range execs {
		briefs = append(briefs, toStageBrief(e))
	}
	common.Success(c, briefs)
}

func (s *Server) Websocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	s.hub.RegisterClient(conn)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.UnregisterClient(conn)
				return
			}
		}
	}()
}

func toBrief(j *model.Job) api.JobBrief {
	brief := api.JobBrief{
		JobID:        j.JobID,
		Topic:        j.Topic,
		Source:       j.Source,
		Status:       j.Status,
		CurrentStage: j.CurrentStage,
		TriggerType:  j.TriggerType,
		StartTime:    j.CreatedAt.Format(time.RFC3339),
	}
	if j.Status == pipeline.StatusSucceeded || j.Status == pipeline.StatusFailed {
		brief.EndTime = j.UpdatedAt.Format(time.RFC3339)
	}
	return brief
}

func toStageBrief(e *model.StageExecution) api.StageBrief {
	return api.StageBrief{
		Stage:       e.Stage,
		Status:      e.Status,
		Artifact:    e.Artifact,
		ErrorKind:   e.ErrorKind,
		ErrorDetail: e.ErrorDetail,
		Retries:     e.Retries,
		DurationMs:  e.DurationMs,
	}
}
