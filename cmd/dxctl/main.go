// dxctl is a small client for a running diagnosisd server. It mirrors the
// /generate request surface: a clinical note plus optional sampling
// overrides, printed as indented JSON.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"diagnosisd/pkg/types"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var server string
	root := &cobra.Command{
		Use:           "dxctl",
		Short:         "Client for the diagnosisd clinical diagnosis extraction API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&server, "server", envOr("DIAGNOSISD_SERVER", "http://localhost:8000"), "Base URL of the diagnosisd server")

	var (
		note             string
		file             string
		temperature      float64
		topP             float64
		topK             int
		maxLength        int
		frequencyPenalty float64
	)
	generate := &cobra.Command{
		Use:     "generate",
		Short:   "Extract diagnoses from a clinical note",
		Example: "  dxctl generate --note \"67yo male with fever and productive cough\"\n  cat note.txt | dxctl generate",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readNote(note, file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			req := types.GenerateRequest{
				ClinicalNote:     text,
				Temperature:      temperature,
				TopP:             topP,
				TopK:             topK,
				MaxLength:        maxLength,
				FrequencyPenalty: frequencyPenalty,
			}
			return postGenerate(cmd.OutOrStdout(), server, req)
		},
	}
	generate.Flags().StringVar(&note, "note", "", "Clinical note text (falls back to --file, then stdin)")
	generate.Flags().StringVar(&file, "file", "", "Read the clinical note from a file")
	generate.Flags().Float64Var(&temperature, "temperature", 0, "Temperature for text generation (default: server setting)")
	generate.Flags().Float64Var(&topP, "top-p", 0, "Top-p sampling parameter (default: server setting)")
	generate.Flags().IntVar(&topK, "top-k", 0, "Top-k sampling parameter (default: server setting)")
	generate.Flags().IntVar(&maxLength, "max-length", 0, "Maximum tokens to generate (default: server setting)")
	generate.Flags().Float64Var(&frequencyPenalty, "frequency-penalty", 0, "Frequency penalty parameter (default: server setting)")
	root.AddCommand(generate)

	health := &cobra.Command{
		Use:   "health",
		Short: "Check server liveness",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(strings.TrimRight(server, "/") + "/healthz")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server unhealthy: %s", resp.Status)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	root.AddCommand(health)

	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func readNote(note, file string, stdin io.Reader) (string, error) {
	if note != "" {
		return note, nil
	}
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(string(b)) == "" {
		return "", fmt.Errorf("no clinical note provided: use --note, --file, or stdin")
	}
	return string(b), nil
}

func postGenerate(out io.Writer, server string, req types.GenerateRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	cli := &http.Client{Timeout: 120 * time.Second}
	resp, err := cli.Post(strings.TrimRight(server, "/")+"/generate", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var e types.ErrorResponse
		if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, e.Error)
		}
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
		_, err = out.Write(respBody)
		return err
	}
	fmt.Fprintln(out, pretty.String())
	return nil
}
