package engine

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"diagnosisd/pkg/types"
)

// spawnEngine launches the inference engine as a local subprocess and then
// delegates requests to a server-backed adapter pointed at it. The GPU
// toggle decides the --device argument the engine is started with.
type spawnEngine struct {
	mu       sync.Mutex
	cmd      *exec.Cmd
	waitDone <-chan struct{}
	inner    Engine
	closed   bool
}

// SpawnConfig configures a subprocess-backed engine.
type SpawnConfig struct {
	// Bin is the engine launcher, e.g. "vllm".
	Bin   string
	Model string
	Host  string
	// Port range scanned for a free listen port.
	PortMin, PortMax int
	UseGPU           bool
	ReqTimeout       time.Duration
	// StartupTimeout bounds how long we wait for the engine health endpoint.
	StartupTimeout time.Duration
}

// NewSpawnEngine starts the engine process and waits until it serves.
// A child that dies during startup fails the call immediately rather than
// waiting out the startup timeout.
func NewSpawnEngine(cfg SpawnConfig) (Engine, error) {
	if strings.TrimSpace(cfg.Bin) == "" {
		return nil, ErrUnavailable("engine binary not configured")
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	portMin, portMax := cfg.PortMin, cfg.PortMax
	if portMin <= 0 {
		portMin, portMax = 30000, 30100
	}
	if portMax < portMin {
		portMax = portMin
	}
	port, err := pickPortInRange(host, portMin, portMax)
	if err != nil {
		return nil, ErrUnavailable(err.Error())
	}

	device := "cpu"
	if cfg.UseGPU {
		device = "cuda"
	}
	args := []string{
		"serve", cfg.Model,
		"--host", host,
		"--port", strconv.Itoa(port),
		"--device", device,
	}
	cmd := exec.Command(cfg.Bin, args...)
	// Keep a stderr tail so a startup failure carries the engine's own words.
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, ErrUnavailable("failed to start engine: " + err.Error())
	}
	log.Printf("engine=spawn event=started pid=%d device=%s port=%d", cmd.Process.Pid, device, port)

	// Single reaper for the child. Everything else watches the channel so
	// Wait is never called twice.
	waitDone := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(waitDone)
	}()

	baseURL := fmt.Sprintf("http://%s:%d", host, port)
	inner := NewServerEngine(ServerConfig{
		BaseURL:    baseURL,
		Model:      cfg.Model,
		ReqTimeout: cfg.ReqTimeout,
	})

	startupTimeout := cfg.StartupTimeout
	if startupTimeout <= 0 {
		startupTimeout = 120 * time.Second
	}
	if err := waitReady(inner, waitDone, cmd.Process.Pid, startupTimeout); err != nil {
		_ = cmd.Process.Kill()
		<-waitDone
		if tail := stderrTail(&stderr); tail != "" {
			err = ErrUnavailable(err.Error() + "; stderr: " + tail)
		}
		return nil, err
	}
	log.Printf("engine=spawn event=ready port=%d", port)
	return &spawnEngine{cmd: cmd, waitDone: waitDone, inner: inner}, nil
}

// waitReady polls the engine health endpoint until it answers, the child
// exits, or the timeout passes. An exited child aborts the wait right away.
func waitReady(e Engine, waitDone <-chan struct{}, pid int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if e.Ready(context.Background()) {
			return nil
		}
		if time.Now().After(deadline) {
			log.Printf("engine=spawn event=timeout pid=%d", pid)
			return ErrUnavailable("engine did not become ready within " + timeout.String())
		}
		select {
		case <-waitDone:
			log.Printf("engine=spawn event=exit_early pid=%d", pid)
			return ErrUnavailable("engine exited before ready")
		case <-time.After(250 * time.Millisecond):
		}
	}
}

func stderrTail(b *bytes.Buffer) string {
	s := strings.TrimSpace(b.String())
	if len(s) > 2048 {
		s = s[len(s)-2048:]
	}
	return s
}

func pickPortInRange(host string, start, end int) (int, error) {
	for p := start; p <= end; p++ {
		l, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, p))
		if err != nil {
			continue
		}
		_ = l.Close()
		return p, nil
	}
	return 0, fmt.Errorf("no free port in range %d-%d", start, end)
}

func (e *spawnEngine) Generate(ctx context.Context, prompt string, params types.SamplingParams) (string, error) {
	return e.inner.Generate(ctx, prompt, params)
}

func (e *spawnEngine) Ready(ctx context.Context) bool {
	return e.inner.Ready(ctx)
}

// Close terminates the engine subprocess. SIGTERM first, SIGKILL after a
// grace period. Best effort.
func (e *spawnEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.cmd == nil || e.cmd.Process == nil {
		return nil
	}
	e.closed = true
	pid := e.cmd.Process.Pid
	_ = e.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-e.waitDone:
	case <-time.After(10 * time.Second):
		log.Printf("engine=spawn event=kill pid=%d", pid)
		_ = e.cmd.Process.Kill()
		<-e.waitDone
	}
	return nil
}
