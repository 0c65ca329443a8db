// Package app wires configuration, credentials, storage, media tooling
// and the nine pipeline stages into a runnable application.
package app

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/common"
	"github.com/levi616boop/AI-content-gen/internal/config"
	"github.com/levi616boop/AI-content-gen/internal/credentials"
	"github.com/levi616boop/AI-content-gen/internal/events"
	"github.com/levi616boop/AI-content-gen/internal/media"
	"github.com/levi616boop/AI-content-gen/internal/pipeline"
	"github.com/levi616boop/AI-content-gen/internal/stage/animate"
	"github.com/levi616boop/AI-content-gen/internal/stage/compose"
	"github.com/levi616boop/AI-content-gen/internal/stage/content"
	"github.com/levi616boop/AI-content-gen/internal/stage/ingest"
	"github.com/levi616boop/AI-content-gen/internal/stage/qc"
	"github.com/levi616boop/AI-content-gen/internal/stage/script"
	"github.com/levi616boop/AI-content-gen/internal/stage/technician"
	"github.com/levi616boop/AI-content-gen/internal/stage/upload"
	"github.com/levi616boop/AI-content-gen/internal/stage/voice"
	"github.com/levi616boop/AI-content-gen/internal/store"
	"github.com/levi616boop/AI-content-gen/internal/store/dao"
)

// stageDirs maps every stage to its output directory key in the paths
// section of main_config.json.
var pathKeys = []string{
	"ingestion_output_dir",
	"script_output_dir",
	"animation_output_dir",
	"voice_output_dir",
	"subtitle_dir",
	"final_video_dir",
	"qc_report_dir",
	"upload_receipt_dir",
	"content_report_dir",
	"diagnostic_dir",
	"log_dir",
}

// App is the assembled pipeline application.
type App struct {
	Config *Config
	Keys   *credentials.Keys
	Runner *pipeline.Runner
	Events *events.Publisher
	Log    *zap.Logger
}

// Config re-exports the loaded run configuration plus resolved paths.
type Config struct {
	*config.Config
	Dirs    map[string]string
	LogFile string
	DBFile  string
}

// Options tune bootstrap behavior.
type Options struct {
	ConfigPath string
	EnvPath    string
	// Notifier receives per-stage updates (websocket hub). Optional.
	Notifier pipeline.Notifier
	// SkipStore disables sqlite history, for one-shot doctor runs.
	SkipStore bool
}

// New loads configuration and credentials, initializes logging and the
// history store, and assembles the stage chain.
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	dirs := make(map[string]string, len(pathKeys))
	for _, key := range pathKeys {
		dir, err := cfg.Path(key)
		if err != nil {
			return nil, err
		}
		dirs[key] = dir
	}

	logFile := filepath.Join(dirs["log_dir"], "pipeline.log")
	common.InitLog(logFile, cfg.Base.LogLevel)
	log := common.GetLogger()

	keys, err := credentials.Load(opts.EnvPath)
	if err != nil {
		return nil, err
	}

	dbFile := filepath.Join(cfg.Base.BaseDataPath, "autoed.db")
	if custom, err := cfg.Path("database"); err == nil {
		dbFile = custom
	}

	var runnerOpts []pipeline.RunnerOption
	if !opts.SkipStore {
		if err := dao.Init(dbFile); err != nil {
			return nil, err
		}
		runnerOpts = append(runnerOpts, pipeline.WithRecorder(store.NewRecorder()))
	}

	pub, err := events.Connect(keys.NATSURL, log)
	if err != nil {
		log.Warn("event bus unavailable, continuing without it", zap.Error(err))
		pub = nil
	}

	if notify := composeNotifier(opts.Notifier, pub); notify != nil {
		runnerOpts = append(runnerOpts, pipeline.WithNotifier(notify))
	}

	tools := media.DefaultTools()
	httpClient := &http.Client{Timeout: 2 * time.Minute}

	stages := []pipeline.Stage{
		ingest.NewEngine(dirs["ingestion_output_dir"], httpClient, log).WithRunner(tools.Runner),
		script.NewGenerator(dirs["script_output_dir"], script.NewLLMClient(keys.OpenAI, httpClient), log),
		animate.NewAnimator(dirs["animation_output_dir"], tools, log),
		voice.NewGenerator(dirs["script_output_dir"], dirs["voice_output_dir"], dirs["subtitle_dir"],
			voice.NewTTSClient(keys.ElevenLabs, httpClient), log),
		compose.NewComposer(dirs["animation_output_dir"], dirs["subtitle_dir"], dirs["final_video_dir"], tools, log),
		qc.NewChecker(dirs["script_output_dir"], dirs["voice_output_dir"], dirs["qc_report_dir"], log),
		upload.NewUploader(dirs["script_output_dir"], dirs["upload_receipt_dir"], keys, httpClient, log),
		content.NewManager(dirs["qc_report_dir"], dirs["content_report_dir"], log),
		technician.NewAgent(logFile, dirs["diagnostic_dir"], log),
	}

	runner := pipeline.NewRunner(cfg, stages, log, runnerOpts...)

	return &App{
		Config: &Config{Config: cfg, Dirs: dirs, LogFile: logFile, DBFile: dbFile},
		Keys:   keys,
		Runner: runner,
		Events: pub,
		Log:    log,
	}, nil
}

// composeNotifier chains the caller's stage notifier (websocket hub)
// with the event bus so every stage completion also reaches NATS.
func composeNotifier(base pipeline.Notifier, pub *events.Publisher) pipeline.Notifier {
	if pub == nil {
		return base
	}
	return func(job *pipeline.Job, res pipeline.StageResult) {
		if base != nil {
			base(job, res)
		}
		pub.StageCompleted(job, res)
	}
}

// RunJob executes one job end to end, mirroring progress to the event
// bus when one is connected.
func (a *App) RunJob(ctx context.Context, job *pipeline.Job) (*pipeline.JobResult, error) {
	a.Events.JobStarted(job)
	res, err := a.Runner.Run(ctx, job)
	if res != nil {
		a.Events.JobFinished(job, res)
	}
	return res, err
}

// Close releases external connections.
func (a *App) Close() {
	a.Events.Close()
	a.Log.Sync()
}
