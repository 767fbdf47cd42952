package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"inflation-dashboard/internal/client"
	"inflation-dashboard/internal/common"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

func main() {
	godotenv.Load()

	var (
		server  = flag.String("server", defaultServer(), "Dashboard base URL")
		file    = flag.String("file", "", "CSV or Excel file to score")
		out     = flag.String("out", "", "Save scored rows to this CSV file")
		summary = flag.Bool("summary", false, "Print the dashboard summary instead of scoring")
		timeout = flag.Duration("timeout", 30*time.Second, "Request timeout")
	)
	flag.Parse()

	c := client.New(*server, *timeout)

	if *summary {
		if err := printSummary(c); err != nil {
			color.Red("Summary failed: %v", err)
			os.Exit(1)
		}
		return
	}

	if *file == "" {
		color.Yellow("Usage: scorectl -file features.csv [-out predictions.csv]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	color.Cyan("Scoring %s against %s...", *file, *server)
	pred, err := c.PredictFile(*file)
	if err != nil {
		color.Red("Prediction error: %v", err)
		os.Exit(1)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Row", common.ColPredictedInflation})
	for i, p := range pred.Predictions {
		table.Append([]string{strconv.Itoa(i + 1), strconv.FormatFloat(p, 'f', 4, 64)})
	}
	table.Render()
	color.Green("✓ Scored %d rows from %s", pred.Rows, pred.Name)

	if *out == "" {
		return
	}
	if pred.Download == "" {
		color.Yellow("The dashboard did not keep this upload; nothing to save")
		return
	}
	body, err := c.Download(pred.Download)
	if err != nil {
		color.Red("Download failed: %v", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, body, 0o644); err != nil {
		color.Red("Write failed: %v", err)
		os.Exit(1)
	}
	color.Green("✓ Saved %s", *out)
}

func defaultServer() string {
	if port := os.Getenv(common.EnvListenPort); port != "" {
		return "http://localhost:" + port
	}
	return fmt.Sprintf("http://localhost:%d", common.DefaultListenPort)
}

func printSummary(c *client.Client) error {
	s, err := c.Summary()
	if err != nil {
		return err
	}

	color.Cyan("Dataset: %d rows, %d columns (period: %t)", s.Rows, len(s.Columns), s.HasPeriod)
	if s.Model != nil {
		color.Cyan("Model: %s (%s), %d features", s.Model.Estimator, s.Model.Kind, len(s.Model.Features))
		if s.Model.MAE != nil && s.Model.RMSE != nil {
			color.Cyan("Test set: %d rows, MAE %.4f, RMSE %.4f", s.Model.TestRows, *s.Model.MAE, *s.Model.RMSE)
		}
	}

	if len(s.Importance) > 0 {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{common.ColFeature, common.ColImportance})
		for _, fs := range s.Importance {
			table.Append([]string{fs.Feature, strconv.FormatFloat(fs.Importance, 'f', 4, 64)})
		}
		table.Render()
	}

	for _, section := range s.Degraded {
		msg := s.Errors[section]
		if msg == "" {
			msg = "unavailable"
		}
		color.Yellow("Degraded %s: %s", section, msg)
	}
	return nil
}
