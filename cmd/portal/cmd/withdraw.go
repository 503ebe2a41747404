package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"forex-portal-go/internal/api"
	"forex-portal-go/internal/common"
	"forex-portal-go/internal/models"
	"forex-portal-go/internal/transfer"
	"forex-portal-go/internal/wizard"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var withdrawOpts struct {
	payment      string
	from         string
	account      string
	amount       string
	withPassword bool
	yes          bool
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw funds to a saved crypto payment detail",
	Long: `Withdraw from an MT5 account or the wallet to an approved payment detail.

Withdrawals require approved KYC. Without --payment the withdrawal runs as
an interactive wizard. With flags the request is validated and summarized;
add --yes to submit it.

Examples:
  portal withdraw
  portal withdraw --payment pd-1 --from wallet --amount 100 --yes
  portal withdraw --payment pd-1 --from mt5 --account 1001 --amount 50 --with-password --yes`,
	Args: cobra.NoArgs,
	RunE: runWithdraw,
}

func init() {
	rootCmd.AddCommand(withdrawCmd)

	f := withdrawCmd.Flags()
	f.StringVar(&withdrawOpts.payment, "payment", "", "payment detail id")
	f.StringVar(&withdrawOpts.from, "from", api.DestinationWallet, "source kind: mt5 or wallet")
	f.StringVar(&withdrawOpts.account, "account", "", "MT5 account number (ignored for wallet)")
	f.StringVar(&withdrawOpts.amount, "amount", "", "amount to withdraw")
	f.BoolVar(&withdrawOpts.withPassword, "with-password", false, "prompt for the account password")
	f.BoolVarP(&withdrawOpts.yes, "yes", "y", false, "submit without asking")
}

func runWithdraw(cmd *cobra.Command, args []string) error {
	ctx, err := sessionContext(cmd)
	if err != nil {
		return err
	}

	form := transfer.NewWithdrawalForm(services.API, transfer.Options{
		Receipts:   services.Store,
		Currencies: services.Currencies,
	})
	defer form.Close()

	if err := form.Load(ctx); err != nil {
		if errors.Is(err, transfer.ErrKYCRequired) {
			common.PrintWarning("%s", err)
			return nil
		}
		return err
	}

	if withdrawOpts.payment == "" {
		if !isInteractive() {
			return fmt.Errorf("--payment is required when stdin is not a terminal")
		}
		return withdrawWizard(ctx, form)
	}
	return withdrawFromFlags(ctx, form)
}

func withdrawFromFlags(ctx context.Context, form *transfer.WithdrawalForm) error {
	if err := form.SelectPaymentDetail(withdrawOpts.payment); err != nil {
		return err
	}
	if err := form.SelectSource(ctx, withdrawOpts.from, withdrawOpts.account); err != nil {
		return err
	}
	if msg := form.SetAmount(withdrawOpts.amount); msg != "" {
		return errors.New(msg)
	}
	if withdrawOpts.withPassword {
		password, err := readPassword("Account password: ")
		if err != nil {
			return err
		}
		form.SetPassword(password)
	}

	if err := form.Next(); err != nil {
		return err
	}
	printWithdrawalSummary(form)

	if !withdrawOpts.yes {
		common.PrintWarning("Not submitted. Re-run with --yes to submit this withdrawal.")
		return nil
	}
	if err := form.Confirm(ctx); err != nil {
		return err
	}
	printWithdrawalResult(form.Result())
	return nil
}

func withdrawWizard(ctx context.Context, form *transfer.WithdrawalForm) error {
	payments := form.PaymentDetails()
	if len(payments) == 0 {
		return errors.New("add and verify a payment detail before withdrawing")
	}

	printStep("WITHDRAWAL", "STEP 1: DESTINATION")
	options := make([]huh.Option[string], 0, len(payments))
	for _, p := range payments {
		label := fmt.Sprintf("%s %s %s", p.Label, p.Network, shortAddress(p.Address))
		options = append(options, huh.NewOption(strings.Join(strings.Fields(label), " "), p.Id))
	}
	var paymentId, source string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Withdraw to").
				Options(options...).
				Value(&paymentId),
			huh.NewSelect[string]().
				Title("Withdraw from").
				Options(destinationOptions(form.Wallet(), form.Accounts())...).
				Value(&source),
		),
	).Run()
	if err != nil {
		return err
	}

	if err := form.SelectPaymentDetail(paymentId); err != nil {
		return err
	}
	kind, id := splitDestination(source)
	if err := form.SelectSource(ctx, kind, id); err != nil {
		return err
	}

details:
	for {
		printStep("WITHDRAWAL", "STEP 2: DETAILS")
		fmt.Println(hintStyle.Render("Limits: " + common.FormatBounds(form.Bounds(), form.Currency(), services.Currencies)))

		draft := form.Draft()
		amount, password := draft.Amount, draft.Password
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title(fmt.Sprintf("Amount (%s)", form.Currency())).
					Value(&amount).
					Validate(inlineMessage(form.SetAmount)),
				huh.NewInput().
					Title("Account password").
					Description("Leave empty if your account does not require it").
					EchoMode(huh.EchoModePassword).
					Value(&password),
			),
		).Run()
		if err != nil {
			return err
		}
		form.SetAmount(amount)
		form.SetPassword(password)

		if err := form.Next(); err != nil {
			var vErr *transfer.ValidationError
			if errors.As(err, &vErr) {
				common.PrintError("%s", vErr.Message)
				continue
			}
			return err
		}

		for {
			printStep("WITHDRAWAL", "STEP 3: CONFIRM")
			printWithdrawalSummary(form)

			action, err := chooseAction(form.Error())
			if err != nil {
				return err
			}
			switch action {
			case actionCancel:
				common.PrintWarning("Withdrawal cancelled")
				return nil
			case actionBack:
				form.Back()
				continue details
			}

			if err := form.Confirm(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				var vErr *transfer.ValidationError
				if errors.As(err, &vErr) {
					common.PrintError("%s", vErr.Message)
					form.Back()
					continue details
				}
				if form.Step() == wizard.Confirm {
					continue
				}
				return err
			}
			printWithdrawalResult(form.Result())
			return nil
		}
	}
}

func printWithdrawalSummary(form *transfer.WithdrawalForm) {
	draft := form.Draft()
	amount := draft.Amount
	if d, err := parseAmount(amount); err == nil {
		amount = common.FormatMoney(d, form.Currency(), services.Currencies)
	}

	payment := draft.PaymentDetailId
	for _, p := range form.PaymentDetails() {
		if p.Id == draft.PaymentDetailId {
			payment = fmt.Sprintf("%s %s", p.Label, shortAddress(p.Address))
		}
	}

	printSummary(
		"From:    "+strings.ToUpper(draft.WithdrawFrom)+" "+draft.SourceId,
		"To:      "+payment,
		"Amount:  "+amount,
	)
}

func printWithdrawalResult(result *models.WithdrawalResult) {
	if result == nil {
		return
	}
	common.PrintSuccess("Withdrawal submitted")
	fmt.Printf("  Id:      %s\n", result.Id)
	fmt.Print("  Status:  ")
	common.StatusColor(result.Status).Println(result.Status)
	fmt.Printf("  Amount:  %s\n", common.FormatMoney(result.Amount, result.Currency, services.Currencies))
}

func shortAddress(addr string) string {
	if len(addr) <= 14 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-6:]
}
