package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/app"
	"github.com/levi616boop/AI-content-gen/internal/pipeline"
	"github.com/levi616boop/AI-content-gen/internal/server"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the pipeline HTTP server",
		RunE:  runServe,
	}

	addConfigFlags(cmd)
	cmd.Flags().String("addr", ":8080", "Listen address")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	envPath, _ := cmd.Flags().GetString("env")
	addr, _ := cmd.Flags().GetString("addr")

	// The hub is created after app.New so it gets the configured logger
	// rather than the pre-init no-op one; StageUpdate tolerates the nil
	// hub in the window before assignment.
	var hub *server.Hub
	a, err := app.New(app.Options{
		ConfigPath: configPath,
		EnvPath:    envPath,
		Notifier: func(job *pipeline.Job, res pipeline.StageResult) {
			hub.StageUpdate(job, res)
		},
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Keys.APISecret == "" {
		return fmt.Errorf("AUTOED_API_SECRET must be set to run the server")
	}

	hub = server.NewHub(a.Log)
	hub.Start()
	trigger := func(job *pipeline.Job) {
		go func() {
			if _, err := a.RunJob(context.Background(), job); err != nil {
				a.Log.Error("triggered run failed", zap.String("job", job.ID), zap.Error(err))
			}
		}()
	}

	srv := server.New(a.Keys.APISecret, trigger, hub, a.Log)
	a.Log.Info("server listening", zap.String("addr", addr))
	return srv.Router().Run(addr)
}
