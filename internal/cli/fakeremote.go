package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/taskboard/internal/fakeremote"
	"github.com/p-blackswan/taskboard/internal/models"
)

var (
	fakeAddr string
	fakeSeed bool
)

var fakeRemoteCmd = &cobra.Command{
	Use:   "fake-remote",
	Short: "Run an in-memory project service for local development",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg, cmd.ErrOrStderr())
		if !cfg.IsDevelopment() {
			logger.Warn().Str("environment", cfg.Environment).Msg("fake remote is meant for development only")
		}

		addr := cfg.FakeRemoteAddr
		if cmd.Flags().Changed("addr") {
			addr = fakeAddr
		}
		srv := fakeremote.New(fakeremote.Config{Secret: cfg.FakeRemoteSecret}, logger)
		if fakeSeed {
			seedDemo(srv)
			fmt.Fprintln(cmd.OutOrStdout(), "Seeded demo data, log in as director/password1, manager/password1 or member/password1")
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Listen(addr) }()
		fmt.Fprintf(cmd.OutOrStdout(), "Fake remote listening on %s\n", addr)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			return srv.Shutdown()
		}
	},
}

// seedDemo loads a small portfolio with a dependency chain.
func seedDemo(srv *fakeremote.Server) {
	str := func(s string) *string { return &s }
	days := func(d int) *int { return &d }

	director := srv.SeedUser("director", "director@example.com", "password1", models.RoleDirector)
	manager := srv.SeedUser("manager", "manager@example.com", "password1", models.RoleManager)
	member := srv.SeedUser("member", "member@example.com", "password1", models.RoleUser)

	research := srv.SeedProject(models.Project{
		Name: "Research", Status: models.ProjectCompleted, HeadID: &director.ID,
		StartTime: str("2025-01-06"), EndTime: str("2025-01-31"), EstimatedDuration: days(25),
	})
	build := srv.SeedProject(models.Project{
		Name: "Build", Status: models.ProjectInProgress, HeadID: &manager.ID,
		StartTime: str("2025-02-03"), EndTime: str("2025-04-30"), EstimatedDuration: days(86),
	}, research.ID)
	srv.SeedProject(models.Project{
		Name: "Launch", HeadID: &manager.ID,
		StartTime: str("2025-05-05"), EndTime: str("2025-05-30"), EstimatedDuration: days(25),
	}, build.ID)
	srv.SeedProject(models.Project{
		Name: "Docs", StartTime: str("2025-02-03"), EndTime: str("2025-03-14"), EstimatedDuration: days(40),
	}, research.ID)

	srv.SeedTask(models.Task{Name: "Interview users", ProjectID: research.ID, Workload: models.WorkloadLight, Finished: true}, member.ID)
	srv.SeedTask(models.Task{Name: "API server", ProjectID: build.ID, Workload: models.WorkloadHeavy, HeadID: &manager.ID}, member.ID)
	srv.SeedTask(models.Task{Name: "Client", ProjectID: build.ID}, member.ID, manager.ID)
}

func init() {
	fakeRemoteCmd.Flags().StringVar(&fakeAddr, "addr", "", "Listen address (default TASKBOARD_FAKE_REMOTE_ADDR)")
	fakeRemoteCmd.Flags().BoolVar(&fakeSeed, "seed", false, "Load demo users and projects")
	RootCmd.AddCommand(fakeRemoteCmd)
}
