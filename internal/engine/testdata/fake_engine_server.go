package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Stand-in for the real engine launcher. Understands the argument shape
// "serve <model> --host H --port P --device D" and answers the two
// endpoints the adapter talks to.
func main() {
	args := os.Args[1:]
	if len(args) < 2 || args[0] != "serve" {
		fmt.Fprintln(os.Stderr, "usage: fake_engine_server serve <model> [flags]")
		os.Exit(2)
	}
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	host := fs.String("host", "127.0.0.1", "host")
	port := fs.String("port", "0", "port")
	fs.String("device", "cpu", "device")
	_ = fs.Parse(args[2:])

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"text":"pneumonia, sepsis"}]}`))
	})

	srv := &http.Server{Addr: fmt.Sprintf("%s:%s", *host, *port), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
