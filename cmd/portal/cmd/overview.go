package cmd

import (
	"fmt"

	"forex-portal-go/internal/common"
	"forex-portal-go/internal/dashboard"

	"github.com/spf13/cobra"
)

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show wallet, MT5 accounts, limits and KYC status",
	Args:  cobra.NoArgs,
	RunE:  runOverview,
}

func init() {
	rootCmd.AddCommand(overviewCmd)
}

func runOverview(cmd *cobra.Command, args []string) error {
	ctx, err := sessionContext(cmd)
	if err != nil {
		return err
	}

	overview, err := dashboard.Load(ctx, services.API)
	if err != nil {
		return err
	}
	table := services.Currencies

	common.PrintHeader("ACCOUNT OVERVIEW", common.DefaultWidth)

	if w := overview.Wallet; w != nil {
		fmt.Printf("\n┌─ Wallet %s\n", w.WalletNumber)
		fmt.Printf("│  Balance:    %s\n", common.FormatMoney(w.Balance, w.Currency, table))
		fmt.Printf("│  Deposit:    %s\n", common.FormatBounds(overview.WalletDeposit, w.Currency, table))
		fmt.Printf("│  Withdrawal: %s\n", common.FormatBounds(overview.WalletWithdrawal, w.Currency, table))
	}

	fmt.Printf("\n┌─ MT5 accounts (%d)\n", len(overview.Accounts))
	for i, view := range overview.Accounts {
		isLast := i == len(overview.Accounts)-1
		a := view.Account
		fmt.Printf("%s%s  %s  1:%d\n", common.BoxPrefix(isLast), a.AccountNumber, a.AccountType, a.Leverage)
		detail := common.BoxDetailPrefix(isLast)
		fmt.Printf("%s  Balance %s  Equity %s\n", detail,
			common.FormatMoney(a.Balance, a.Currency, table),
			common.FormatMoney(a.Equity, a.Currency, table))
		fmt.Printf("%s  Deposit    %s\n", detail, common.FormatBounds(view.Deposit, a.Currency, table))
		fmt.Printf("%s  Withdrawal %s\n", detail, common.FormatBounds(view.Withdrawal, a.Currency, table))
	}

	fmt.Println()
	kycStatus := "unknown"
	if overview.KYC != nil {
		kycStatus = overview.KYC.Status
	}
	fmt.Print("KYC: ")
	common.StatusColor(kycStatus).Println(kycStatus)
	if !overview.WithdrawalsAllowed() {
		common.PrintWarning("Withdrawals are available once KYC is approved")
	}

	common.PrintSeparator("-", common.DefaultWidth)
	for _, t := range overview.Totals {
		fmt.Printf("%-4s balance %s  equity %s\n", t.Currency,
			common.FormatMoney(t.Balance, t.Currency, table),
			common.FormatMoney(t.Equity, t.Currency, table))
	}
	return nil
}
