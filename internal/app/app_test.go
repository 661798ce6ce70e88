package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/employer-pool/internal/config"
	"github.com/employer-pool/internal/models"
	"github.com/employer-pool/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestContainer(t *testing.T) (*config.Config, *provider.Container) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:app_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.JWT.SecretKey = "app-test-secret"
	return cfg, provider.NewContainerWithDB(cfg, db)
}

func TestBuildRunnerServicesByMode(t *testing.T) {
	cfg, container := newTestContainer(t)
	cases := []struct {
		mode string
		want []string
	}{
		{mode: ModeAPI, want: []string{"http"}},
		{mode: ModeWorker, want: []string{"intent_sweep"}},
		{mode: ModeAll, want: []string{"http", "intent_sweep"}},
	}
	for _, tc := range cases {
		runner, err := buildRunner(cfg, tc.mode, container)
		if err != nil {
			t.Fatalf("mode %s build failed: %v", tc.mode, err)
		}
		got := runner.Names()
		if len(got) != len(tc.want) {
			t.Fatalf("mode %s want %v got %v", tc.mode, tc.want, got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("mode %s want %v got %v", tc.mode, tc.want, got)
			}
		}
	}
}

func TestBuildRunnerRejectsUnknownMode(t *testing.T) {
	if _, err := BuildRunner(&config.Config{}, "cron"); err == nil {
		t.Fatalf("unknown mode should return error")
	}
	if _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("nil config should return error")
	}
}

type fakeService struct {
	name     string
	startErr error
	stopped  atomic.Bool
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *fakeService) Stop(context.Context) error {
	s.stopped.Store(true)
	return nil
}

func TestRunnerStopsAllWhenOneFails(t *testing.T) {
	healthy := &fakeService{name: "healthy"}
	broken := &fakeService{name: "broken", startErr: errors.New("bind failed")}
	runner := NewRunner(healthy, broken)

	err := runner.Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "bind failed" {
		t.Fatalf("want start error, got %v", err)
	}
	if !healthy.stopped.Load() || !broken.stopped.Load() {
		t.Fatalf("all services should be stopped")
	}
}

func TestRunnerCancelReturnsNil(t *testing.T) {
	svc := &fakeService{name: "loop"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewRunner(svc).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
	if !svc.stopped.Load() {
		t.Fatalf("service should be stopped")
	}
}

func TestRunnerWithoutServices(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("empty runner should return error")
	}
}
