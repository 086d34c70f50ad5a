// cmd/tools/dashboard-report/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"loan-dashboard/internal/common/config"
	"loan-dashboard/internal/common/loanservice"
	"loan-dashboard/internal/common/logger"
	"loan-dashboard/internal/dashboard"
	"loan-dashboard/internal/models"
)

func main() {
	summaryCmd := flag.NewFlagSet("summary", flag.ExitOnError)
	emisCmd := flag.NewFlagSet("emis", flag.ExitOnError)

	// Summary command flags
	summaryURL := summaryCmd.String("base-url", config.DefaultLoanServiceURL, "Loan service base URL")
	userID := summaryCmd.String("user-id", "", "Principal id")
	role := summaryCmd.String("role", "", "Principal role (ADMIN sees every application)")
	search := summaryCmd.String("search", "", "Case-insensitive name/purpose search")
	status := summaryCmd.String("status", dashboard.FilterAll, "Status filter (ALL, PENDING, APPROVED, ...)")
	summaryTimeout := summaryCmd.Duration("timeout", 10*time.Second, "Request timeout")

	// EMIs command flags
	emisURL := emisCmd.String("base-url", config.DefaultLoanServiceURL, "Loan service base URL")
	applicationID := emisCmd.String("application-id", "", "Application whose EMI schedule to print")
	emisTimeout := emisCmd.Duration("timeout", 10*time.Second, "Request timeout")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	log := logger.NewStructured("warn", "console")

	switch os.Args[1] {
	case "summary":
		summaryCmd.Parse(os.Args[2:])
		if *userID == "" || *role == "" {
			fmt.Println("Error: user-id and role are required for summary.")
			summaryCmd.Usage()
			os.Exit(1)
		}
		client := loanservice.NewClient(*summaryURL, *summaryTimeout, log)
		snap, err := summarize(context.Background(), client, log, &models.Principal{ID: *userID, Role: *role}, *search, *status)
		if err != nil {
			fmt.Printf("Error building summary: %v\n", err)
			os.Exit(1)
		}
		printJSON(snap)

	case "emis":
		emisCmd.Parse(os.Args[2:])
		if *applicationID == "" {
			fmt.Println("Error: application-id is required for emis.")
			emisCmd.Usage()
			os.Exit(1)
		}
		client := loanservice.NewClient(*emisURL, *emisTimeout, log)
		records, err := client.ListEMIs(context.Background(), *applicationID)
		if err != nil {
			fmt.Printf("Error loading EMIs: %v\n", err)
			os.Exit(1)
		}
		printJSON(records)

	case "help":
		fallthrough
	default:
		help()
	}
}

// summarize mounts a one-off view and applies the filters.
func summarize(ctx context.Context, gateway dashboard.Gateway, log logger.Logger, principal *models.Principal, search, status string) (dashboard.Snapshot, error) {
	view := dashboard.NewView(dashboard.ViewOptions{
		Principal: principal,
		Gateway:   gateway,
		Logger:    log,
	})
	if err := view.Mount(ctx); err != nil {
		return dashboard.Snapshot{}, err
	}
	if err := view.SetStatusFilter(status); err != nil {
		return dashboard.Snapshot{}, err
	}
	view.SetSearchQuery(search)
	return view.Snapshot(), nil
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Error encoding output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func help() {
	fmt.Println("Usage: dashboard-report <command> [arguments]")
	fmt.Println("Commands:")
	fmt.Println("  summary  -user-id <id> -role <role> [-search <q>] [-status <status>] [-base-url <url>]")
	fmt.Println("  emis     -application-id <id> [-base-url <url>]")
	fmt.Println("  help     Show this help message")
}
