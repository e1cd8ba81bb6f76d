package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/agentboard/internal/core/config"
	"github.com/vietddude/agentboard/internal/core/domain"
	"github.com/vietddude/agentboard/internal/poller"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current state of a running agentboard instance",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	base := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 5 * time.Second}

	var health map[string]string
	if err := fetchJSON(client, base+"/health", &health); err != nil {
		slog.Error("Instance not reachable", "url", base, "error", err)
		os.Exit(1)
	}
	fmt.Printf("status: %s\n", health["status"])

	var services struct {
		Services         []domain.Service        `json:"services"`
		DeploymentStatus domain.DeploymentStatus `json:"deployment_status"`
	}
	if err := fetchJSON(client, base+"/api/services", &services); err != nil {
		slog.Error("Failed to fetch services", "error", err)
		os.Exit(1)
	}
	fmt.Printf("deployment: %s\n\n", services.DeploymentStatus)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "SERVICE\tNAME\tSTATE")
	for _, svc := range services.Services {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", svc.Hash, svc.Name, svc.Status)
	}
	_ = w.Flush()

	var balance poller.Snapshot
	if err := fetchJSON(client, base+"/api/balance", &balance); err != nil || !balance.Valid {
		fmt.Println("\nbalance: not yet available")
		return
	}
	fmt.Printf("\naggregate balance: %g %s (as of %s)\n",
		balance.Aggregate,
		domain.CurrencyDenom(cfg.Chain.ChainID),
		balance.UpdatedAt.Format(time.RFC3339))
}

func fetchJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	// 503 still carries a JSON body (starting / not-yet-available states).
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
