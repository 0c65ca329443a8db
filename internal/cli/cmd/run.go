package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/levi616boop/AI-content-gen/internal/app"
	"github.com/levi616boop/AI-content-gen/internal/pipeline"
	"github.com/levi616boop/AI-content-gen/internal/scheduler"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <source>",
		Short: "Run the content pipeline for one source",
		Args:  cobra.ExactArgs(1),
		RunE:  runRun,
	}

	addConfigFlags(cmd)
	cmd.Flags().StringP("source-type", "t", "pdf", "Source type: pdf, image, html or txt")
	cmd.Flags().String("topic", "", "Topic of the generated video")
	cmd.Flags().String("language", "", "Narration language")
	cmd.Flags().String("style", "", "Presentation style")
	cmd.Flags().Int("duration", 0, "Target video duration in seconds")
	cmd.Flags().String("schedule", "", "Cron expression to run this source on a schedule")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	envPath, _ := cmd.Flags().GetString("env")
	sourceType, _ := cmd.Flags().GetString("source-type")
	topic, _ := cmd.Flags().GetString("topic")
	language, _ := cmd.Flags().GetString("language")
	style, _ := cmd.Flags().GetString("style")
	duration, _ := cmd.Flags().GetInt("duration")
	schedule, _ := cmd.Flags().GetString("schedule")

	a, err := app.New(app.Options{ConfigPath: configPath, EnvPath: envPath})
	if err != nil {
		return err
	}
	defer a.Close()

	if schedule != "" {
		return runScheduled(a, scheduler.JobSpec{
			Schedule:        schedule,
			Source:          args[0],
			SourceType:      sourceType,
			Topic:           topic,
			Language:        language,
			Style:           style,
			DurationSeconds: duration,
		})
	}

	job := pipeline.NewJob(args[0], sourceType, topic)
	job.Language = language
	job.Style = style
	job.TargetDuration = duration

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := a.RunJob(ctx, job)
	if res != nil {
		printResult(res)
	}
	if err != nil {
		return err
	}
	if job.Status == pipeline.StatusFailed {
		os.Exit(1)
	}
	return nil
}

func runScheduled(a *app.App, spec scheduler.JobSpec) error {
	sched := scheduler.New(func(job *pipeline.Job) {
		if _, err := a.RunJob(context.Background(), job); err != nil {
			fmt.Printf("scheduled run %s failed: %v\n", job.ID, err)
		}
	}, a.Log)

	if err := sched.Add(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec.Schedule, err)
	}
	sched.Start()
	defer sched.Stop()

	fmt.Printf("Scheduled %q for %s, press Ctrl-C to stop\n", spec.Source, spec.Schedule)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return nil
}

func printResult(res *pipeline.JobResult) {
	fmt.Printf("Job %s: %s\n", res.Job.ID, res.Job.Status)
	if fail := res.FirstFailure(); fail != nil {
		fmt.Printf("First failure: stage=%s kind=%s retries=%d\n", fail.Stage, fail.ErrorKind, fail.Retries)
	}
	for _, st := range res.Stages {
		line := fmt.Sprintf("  %-20s %-10s", st.Stage, st.Status)
		if st.Retries > 0 {
			line += fmt.Sprintf(" retries=%d", st.Retries)
		}
		if st.Error != "" {
			line += " " + st.Error
		} else if st.Artifact != "" {
			line += " " + st.Artifact
		}
		fmt.Println(line)
	}
}
