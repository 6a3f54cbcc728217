package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/spf13/cobra"
)

var obsCmd = &cobra.Command{
	Use:   "obs",
	Short: "Observability commands (query a Prometheus-compatible server)",
}

var promURL string

type queryResponse struct {
	Status string `json:"status"`
	Data   struct {
		Result []struct {
			Metric map[string]string `json:"metric"`
			Value  []interface{}     `json:"value"`
		} `json:"result"`
	} `json:"data"`
}

func obsQueryCmd(use, short string, queries map[string]string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Run: func(cmd *cobra.Command, args []string) {
			names := make([]string, 0, len(queries))
			for name := range queries {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("%s: %s\n", name, query(promURL, queries[name]))
			}
		},
	}
}

func query(baseURL, q string) string {
	resp, err := http.Get(baseURL + "/api/v1/query?query=" + url.QueryEscape(q))
	if err != nil {
		return "error: " + err.Error()
	}
	defer resp.Body.Close()

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return "parse error"
	}
	if len(qr.Data.Result) == 0 {
		return "no data"
	}
	result := qr.Data.Result[0]
	if len(result.Value) >= 2 {
		return fmt.Sprintf("%v", result.Value[1])
	}
	return "no value"
}

func init() {
	obsCmd.PersistentFlags().StringVar(&promURL, "prom-url", "http://localhost:8428", "Prometheus-compatible query URL")
	obsCmd.AddCommand(
		obsQueryCmd("summary", "Show request and operation rates", map[string]string{
			"HTTP Request Rate":    `sum(rate(wsorch_http_requests_total[5m]))`,
			"Active Requests":      `sum(wsorch_active_requests)`,
			"Operation Error Rate": `sum(rate(wsorch_operation_total{result!="ok"}[5m]))`,
			"Teardown Warnings":    `sum(increase(wsorch_teardown_warnings_total[1h]))`,
		}),
		obsQueryCmd("latency", "Show latency metrics", map[string]string{
			"HTTP P50":       `histogram_quantile(0.5, sum(rate(wsorch_http_request_duration_seconds_bucket[5m])) by (le))`,
			"HTTP P95":       `histogram_quantile(0.95, sum(rate(wsorch_http_request_duration_seconds_bucket[5m])) by (le))`,
			"Ready Wait P95": `histogram_quantile(0.95, sum(rate(wsorch_poll_duration_seconds_bucket{wait="ready"}[15m])) by (le))`,
		}),
		obsQueryCmd("releases", "Show background release metrics", map[string]string{
			"Queue Depth":        `sum(wsorch_background_queue_depth)`,
			"Stop Wait P95":      `histogram_quantile(0.95, sum(rate(wsorch_poll_duration_seconds_bucket{wait="release"}[15m])) by (le))`,
			"Abandoned (1h)":     `sum(increase(wsorch_release_outcome_total{outcome="abandoned"}[1h]))`,
			"Not Scheduled (1h)": `sum(increase(wsorch_release_outcome_total{outcome="not_scheduled"}[1h]))`,
			"Created (1h)":       `sum(increase(wsorch_release_outcome_total{outcome="created"}[1h]))`,
		}),
	)
	rootCmd.AddCommand(obsCmd)
}
