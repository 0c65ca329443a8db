package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/levi616boop/AI-content-gen/internal/config"
	"github.com/levi616boop/AI-content-gen/internal/credentials"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, credentials and external tools",
		Run:   runDoctor,
	}

	addConfigFlags(cmd)

	return cmd
}

func runDoctor(cmd *cobra.Command, args []string) {
	configPath, _ := cmd.Flags().GetString("config")
	envPath, _ := cmd.Flags().GetString("env")

	failed := false
	check := func(name string, err error) {
		if err != nil {
			failed = true
			fmt.Printf("  [FAIL] %-28s %v\n", name, err)
			return
		}
		fmt.Printf("  [ ok ] %s\n", name)
	}

	fmt.Println("Configuration:")
	cfg, err := config.Load(configPath)
	check("load "+configPath, err)
	if cfg != nil {
		_, err := os.Stat(cfg.Base.BaseDataPath)
		check("base_data_path exists", err)
	}

	fmt.Println("Credentials:")
	_, credErr := credentials.Load(envPath)
	check("mandatory API keys", credErr)

	fmt.Println("External tools:")
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		_, err := exec.LookPath(tool)
		check(tool+" on PATH", err)
	}

	if failed {
		os.Exit(1)
	}
	fmt.Println("All checks passed.")
}
