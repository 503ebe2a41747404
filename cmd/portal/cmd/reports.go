package cmd

import (
	"context"
	"fmt"
	"time"

	"forex-portal-go/internal/api"
	"forex-portal-go/internal/common"
	"forex-portal-go/internal/models"

	"github.com/spf13/cobra"
)

var reportOpts struct {
	from     string
	to       string
	account  string
	txType   string
	status   string
	page     int
	limit    int
	download string
	dir      string
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Browse and download account reports",
	Long: `Browse transaction history and MT5 account statements, or download
them as PDF or Excel.

Subcommands:
  history    - Deposits, withdrawals and transfers
  statement  - Deals and totals for one MT5 account

Examples:
  portal reports history --from 2025-01-01 --to 2025-01-31
  portal reports history --download excel --dir ~/Downloads
  portal reports statement --account 1001 --download pdf`,
}

var reportsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or download transaction history",
	Args:  cobra.NoArgs,
	RunE:  runReportsHistory,
}

var reportsStatementCmd = &cobra.Command{
	Use:   "statement",
	Short: "Show or download an MT5 account statement",
	Args:  cobra.NoArgs,
	RunE:  runReportsStatement,
}

func init() {
	rootCmd.AddCommand(reportsCmd)
	reportsCmd.AddCommand(reportsHistoryCmd)
	reportsCmd.AddCommand(reportsStatementCmd)

	pf := reportsCmd.PersistentFlags()
	pf.StringVar(&reportOpts.from, "from", "", "start date (YYYY-MM-DD)")
	pf.StringVar(&reportOpts.to, "to", "", "end date (YYYY-MM-DD)")
	pf.StringVar(&reportOpts.download, "download", "", "download as pdf or excel instead of printing")
	pf.StringVar(&reportOpts.dir, "dir", "", "directory for downloads (default DOWNLOAD_DIR)")

	hf := reportsHistoryCmd.Flags()
	hf.StringVar(&reportOpts.txType, "type", "", "filter by type: deposit, withdrawal, transfer")
	hf.StringVar(&reportOpts.status, "status", "", "filter by status")
	hf.IntVar(&reportOpts.page, "page", 1, "page number")
	hf.IntVar(&reportOpts.limit, "limit", 20, "items per page")

	reportsStatementCmd.Flags().StringVarP(&reportOpts.account, "account", "a", "", "MT5 account number")
}

func reportFilter() (api.ReportFilter, error) {
	filter := api.ReportFilter{
		AccountNumber: reportOpts.account,
		Type:          reportOpts.txType,
		Status:        reportOpts.status,
		Page:          reportOpts.page,
		Limit:         reportOpts.limit,
	}

	var err error
	if filter.From, err = parseDate(reportOpts.from); err != nil {
		return filter, fmt.Errorf("--from: %w", err)
	}
	if filter.To, err = parseDate(reportOpts.to); err != nil {
		return filter, fmt.Errorf("--to: %w", err)
	}
	return filter, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

func runReportsHistory(cmd *cobra.Command, args []string) error {
	ctx, filter, err := reportContext(cmd)
	if err != nil {
		return err
	}
	if reportOpts.download != "" {
		return downloadReport(ctx, api.ReportTransactionHistory, filter)
	}

	history, err := services.Reports.TransactionHistory(ctx, filter)
	if err != nil {
		return err
	}
	printHistory(history)
	return nil
}

func runReportsStatement(cmd *cobra.Command, args []string) error {
	ctx, filter, err := reportContext(cmd)
	if err != nil {
		return err
	}
	if reportOpts.download != "" {
		return downloadReport(ctx, api.ReportAccountStatement, filter)
	}

	statement, err := services.Reports.AccountStatement(ctx, filter)
	if err != nil {
		return err
	}
	printStatement(statement)
	return nil
}

func reportContext(cmd *cobra.Command) (context.Context, api.ReportFilter, error) {
	filter, err := reportFilter()
	if err != nil {
		return nil, filter, err
	}
	ctx, err := sessionContext(cmd)
	return ctx, filter, err
}

func downloadReport(ctx context.Context, report string, filter api.ReportFilter) error {
	format, err := api.ParseFormat(reportOpts.download)
	if err != nil {
		return err
	}
	path, err := services.Reports.Download(ctx, report, format, filter, reportOpts.dir)
	if err != nil {
		return err
	}
	common.PrintSuccess("Saved %s", path)
	return nil
}

func printHistory(history *models.TransactionHistory) {
	common.PrintHeader("TRANSACTION HISTORY", common.WideWidth)
	if len(history.Items) == 0 {
		fmt.Println("No transactions in this range.")
		return
	}

	fmt.Printf("%-19s  %-10s  %-14s  %16s  %s\n", "DATE", "TYPE", "METHOD", "AMOUNT", "STATUS")
	for _, tx := range history.Items {
		fmt.Printf("%-19s  %-10s  %-14s  %16s  ",
			tx.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			tx.Type,
			tx.Method,
			common.FormatMoney(tx.Amount, tx.Currency, services.Currencies))
		common.StatusColor(tx.Status).Println(tx.Status)
	}
	common.PrintSeparator("-", common.WideWidth)
	fmt.Printf("Page %d · %d of %d transactions\n", history.Page, len(history.Items), history.Total)
}

func printStatement(s *models.AccountStatement) {
	common.PrintHeader("ACCOUNT STATEMENT "+s.AccountNumber, common.WideWidth)

	fmt.Printf("Balance:     %s\n", common.FormatMoney(s.Balance, s.Currency, services.Currencies))
	fmt.Printf("Equity:      %s\n", common.FormatMoney(s.Equity, s.Currency, services.Currencies))
	fmt.Printf("Deposits:    %s\n", common.FormatMoney(s.Deposits, s.Currency, services.Currencies))
	fmt.Printf("Withdrawals: %s\n", common.FormatMoney(s.Withdrawals, s.Currency, services.Currencies))
	fmt.Printf("Profit/loss: %s\n", common.FormatMoney(s.ProfitLoss, s.Currency, services.Currencies))

	if len(s.Deals) == 0 {
		return
	}
	fmt.Println()
	fmt.Printf("%-10s  %-8s  %-5s  %8s  %12s  %12s  %14s\n", "TICKET", "SYMBOL", "TYPE", "VOLUME", "OPEN", "CLOSE", "PROFIT")
	for _, d := range s.Deals {
		fmt.Printf("%-10s  %-8s  %-5s  %8s  %12s  %12s  %14s\n",
			d.Ticket, d.Symbol, d.Type,
			d.Volume.String(), d.OpenPrice.String(), d.ClosePrice.String(),
			common.FormatMoney(d.Profit, s.Currency, services.Currencies))
	}
}
