package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/naeemkhedarun/csmetrics/internal/config"
	"github.com/naeemkhedarun/csmetrics/internal/util"
	"k8s.io/apimachinery/pkg/runtime"
	fakediscovery "k8s.io/client-go/discovery/fake"
	k8stesting "k8s.io/client-go/testing"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/clientcmd/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// createTestKubeconfig writes a kubeconfig with one context per server and returns its path
func createTestKubeconfig(t *testing.T, servers map[string]string) string {
	t.Helper()

	cfg := api.Config{
		Clusters:  make(map[string]*api.Cluster),
		AuthInfos: make(map[string]*api.AuthInfo),
		Contexts:  make(map[string]*api.Context),
	}

	for name, server := range servers {
		cfg.Clusters[name] = &api.Cluster{Server: server, InsecureSkipTLSVerify: true}
		cfg.AuthInfos[name] = &api.AuthInfo{Token: "token-" + name}
		cfg.Contexts[name] = &api.Context{Cluster: name, AuthInfo: name, Namespace: "default"}
		cfg.CurrentContext = name
	}

	path := filepath.Join(t.TempDir(), "kubeconfig")
	if err := clientcmd.WriteToFile(cfg, path); err != nil {
		t.Fatalf("failed to write kubeconfig: %v", err)
	}
	return path
}

// versionServer serves the discovery version endpoint like an API server
func versionServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/version" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"major":"1","minor":"30","gitVersion":"v1.30.2"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewManager_NilLogger(t *testing.T) {
	manager := NewManager(config.NewKubeconfigLoader(""), nil)
	if manager.logger == nil {
		t.Error("expected default logger")
	}
	if manager.alias("ctx") != "ctx" {
		t.Error("expected identity alias by default")
	}
}

func TestManager_Connect(t *testing.T) {
	path := createTestKubeconfig(t, map[string]string{
		"prod":    "https://prod.example.com:6443",
		"staging": "https://staging.example.com:6443",
	})

	tests := []struct {
		name        string
		contexts    []string
		wantErr     bool
		wantCount   int
		wantFailure string
	}{
		{
			name:      "all contexts",
			contexts:  []string{"prod", "staging"},
			wantCount: 2,
		},
		{
			name:      "single context",
			contexts:  []string{"staging"},
			wantCount: 1,
		},
		{
			name:        "unknown context keeps the others",
			contexts:    []string{"prod", "missing"},
			wantErr:     true,
			wantCount:   1,
			wantFailure: "missing",
		},
		{
			name:     "no contexts",
			contexts: nil,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewManager(config.NewKubeconfigLoader(path), testLogger())
			defer manager.Close()

			err := manager.Connect(context.Background(), tt.contexts)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Connect() error = %v, wantErr %v", err, tt.wantErr)
			}
			if manager.Count() != tt.wantCount {
				t.Errorf("expected %d clients, got %d", tt.wantCount, manager.Count())
			}

			if tt.wantFailure != "" {
				var multi *util.MultiError
				if !errors.As(err, &multi) || multi.Len() != 1 {
					t.Fatalf("expected one aggregated failure, got %v", err)
				}
				var ce *util.ClusterError
				if !errors.As(err, &ce) || ce.ClusterName != tt.wantFailure {
					t.Errorf("expected ClusterError for %q, got %v", tt.wantFailure, err)
				}
				if !errors.Is(err, util.ErrConnectionFailed) {
					t.Errorf("expected ErrConnectionFailed, got %v", err)
				}
			}
		})
	}
}

func TestManager_Connect_Aliases(t *testing.T) {
	path := createTestKubeconfig(t, map[string]string{"arn:aws:eks:us-east-1:1:cluster/prod": "https://prod.example.com"})

	manager := NewManager(config.NewKubeconfigLoader(path), testLogger(), WithAliases(util.ShortClusterName))
	if err := manager.ConnectAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	client, err := manager.GetClient("prod")
	if err != nil {
		t.Fatalf("expected client under alias: %v", err)
	}
	if client.Context != "arn:aws:eks:us-east-1:1:cluster/prod" {
		t.Errorf("unexpected context %q", client.Context)
	}
}

func TestManager_Connect_Verify(t *testing.T) {
	srv := versionServer(t)
	path := createTestKubeconfig(t, map[string]string{
		"up":   srv.URL,
		"down": "http://127.0.0.1:1",
	})

	manager := NewManager(config.NewKubeconfigLoader(path), testLogger(), WithVerify(true))
	err := manager.ConnectAll(context.Background())

	var ce *util.ClusterError
	if !errors.As(err, &ce) || ce.ClusterName != "down" {
		t.Fatalf("expected failure for the unreachable cluster, got %v", err)
	}
	if got := strings.Join(manager.Names(), ","); got != "up" {
		t.Errorf("expected only the reachable cluster, got %q", got)
	}

	client, _ := manager.GetClient("up")
	if !client.IsHealthy() {
		t.Error("expected verified client to be healthy")
	}
}

func TestManager_Connect_ContextCancellation(t *testing.T) {
	path := createTestKubeconfig(t, map[string]string{"prod": "https://prod.example.com"})
	manager := NewManager(config.NewKubeconfigLoader(path), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := manager.Connect(ctx, []string{"prod"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestManager_ClientAccess(t *testing.T) {
	manager := NewManager(nil, testLogger())

	for _, name := range []string{"staging", "prod", "dev"} {
		client, _ := newFakeClient(name)
		if err := manager.Add(client); err != nil {
			t.Fatalf("Add(%s): %v", name, err)
		}
	}

	dup, _ := newFakeClient("prod")
	if err := manager.Add(dup); err == nil {
		t.Error("expected duplicate cluster to be rejected")
	}

	if manager.Count() != 3 {
		t.Errorf("expected 3 clients, got %d", manager.Count())
	}
	if got := strings.Join(manager.Names(), ","); got != "dev,prod,staging" {
		t.Errorf("unexpected names %q", got)
	}

	clients := manager.Clients()
	if len(clients) != 3 || clients[0].Name != "dev" {
		t.Errorf("expected clients sorted by name, got %v", clients)
	}

	sets := manager.Clientsets()
	if len(sets) != 3 || sets["prod"] == nil {
		t.Errorf("unexpected clientsets %v", sets)
	}

	if _, err := manager.GetClient("prod"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := manager.GetClient("nope"); !errors.Is(err, util.ErrClusterNotFound) {
		t.Errorf("expected ErrClusterNotFound, got %v", err)
	}
}

func TestManager_HealthCheck(t *testing.T) {
	manager := NewManager(nil, testLogger())

	healthy, _ := newFakeClient("healthy")
	broken, cs := newFakeClient("broken")
	cs.Discovery().(*fakediscovery.FakeDiscovery).PrependReactor("get", "version",
		func(action k8stesting.Action) (bool, runtime.Object, error) {
			return true, nil, errors.New("connection refused")
		})

	manager.Add(healthy)
	manager.Add(broken)

	statuses, err := manager.HealthCheck(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}

	// sorted by name: broken, healthy
	if statuses[0].ClusterName != "broken" || statuses[0].Healthy || statuses[0].Error == nil {
		t.Errorf("unexpected status for broken cluster: %+v", statuses[0])
	}
	if statuses[1].ClusterName != "healthy" || !statuses[1].Healthy || statuses[1].ServerVersion != "v1.30.2" {
		t.Errorf("unexpected status for healthy cluster: %+v", statuses[1])
	}
}

func TestManager_HealthCheck_Empty(t *testing.T) {
	statuses, err := NewManager(nil, testLogger()).HealthCheck(context.Background())
	if err != nil || len(statuses) != 0 {
		t.Errorf("expected no statuses and no error, got %v, %v", statuses, err)
	}
}

func TestManager_Close(t *testing.T) {
	manager := NewManager(nil, testLogger())
	client, _ := newFakeClient("prod")
	manager.Add(client)

	manager.Close()
	manager.Close()

	if !manager.IsClosed() {
		t.Error("expected manager to be closed")
	}
	if manager.Count() != 0 {
		t.Errorf("expected no clients after close, got %d", manager.Count())
	}
	if _, err := manager.GetClient("prod"); err == nil {
		t.Error("expected error after close")
	}
	if err := manager.Add(client); err == nil {
		t.Error("expected Add to fail after close")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager(nil, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			client, _ := newFakeClient(fmt.Sprintf("cluster-%d", i))
			manager.Add(client)
		}(i)
		go func() {
			defer wg.Done()
			_ = manager.Names()
			_ = manager.Clientsets()
			_ = manager.Count()
		}()
	}
	wg.Wait()

	if manager.Count() != 20 {
		t.Errorf("expected 20 clients, got %d", manager.Count())
	}
}
