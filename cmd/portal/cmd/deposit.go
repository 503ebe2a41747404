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

var depositOpts struct {
	gateway string
	to      string
	account string
	amount  string
	proof   string
	hash    string
	yes     bool
}

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Deposit funds to an MT5 account or the wallet",
	Long: `Deposit funds through one of the available gateways.

Without --gateway the deposit runs as an interactive wizard. With flags the
request is validated and summarized; add --yes to submit it.

Examples:
  portal deposit
  portal deposit --gateway bank --to mt5 --account 1001 --amount 250 --proof slip.pdf --yes
  portal deposit --gateway usdt --to wallet --amount 100 --hash 0xabc --yes`,
	Args: cobra.NoArgs,
	RunE: runDeposit,
}

func init() {
	rootCmd.AddCommand(depositCmd)

	f := depositCmd.Flags()
	f.StringVar(&depositOpts.gateway, "gateway", "", "deposit gateway id")
	f.StringVar(&depositOpts.to, "to", api.DestinationMT5, "destination kind: mt5 or wallet")
	f.StringVar(&depositOpts.account, "account", "", "MT5 account number (ignored for wallet)")
	f.StringVar(&depositOpts.amount, "amount", "", "amount to deposit")
	f.StringVar(&depositOpts.proof, "proof", "", "path to the proof of payment")
	f.StringVar(&depositOpts.hash, "hash", "", "transaction hash for crypto gateways")
	f.BoolVarP(&depositOpts.yes, "yes", "y", false, "submit without asking")
}

func runDeposit(cmd *cobra.Command, args []string) error {
	ctx, err := sessionContext(cmd)
	if err != nil {
		return err
	}

	form := transfer.NewDepositForm(services.API, transfer.Options{
		Receipts:   services.Store,
		Currencies: services.Currencies,
	})
	defer form.Close()

	if err := form.Load(ctx); err != nil {
		return err
	}

	if depositOpts.gateway == "" {
		if !isInteractive() {
			return fmt.Errorf("--gateway is required when stdin is not a terminal")
		}
		return depositWizard(ctx, form)
	}
	return depositFromFlags(ctx, form)
}

func depositFromFlags(ctx context.Context, form *transfer.DepositForm) error {
	if err := form.SelectGateway(depositOpts.gateway); err != nil {
		return err
	}
	if err := form.SelectDestination(ctx, depositOpts.to, depositOpts.account); err != nil {
		return err
	}
	if msg := form.SetAmount(depositOpts.amount); msg != "" {
		return errors.New(msg)
	}
	if err := form.AttachProof(depositOpts.proof); err != nil {
		return err
	}
	form.SetTransactionHash(depositOpts.hash)

	if err := form.Next(); err != nil {
		return err
	}
	printDepositSummary(form)

	if !depositOpts.yes {
		common.PrintWarning("Not submitted. Re-run with --yes to submit this deposit.")
		return nil
	}
	if err := form.Confirm(ctx); err != nil {
		return err
	}
	printDepositResult(form.Result())
	return nil
}

func depositWizard(ctx context.Context, form *transfer.DepositForm) error {
	gateways := form.Gateways()
	if len(gateways) == 0 {
		return errors.New("no deposit methods are available right now")
	}

	printStep("DEPOSIT", "STEP 1: METHOD")
	var gatewayId string
	options := make([]huh.Option[string], 0, len(gateways))
	for _, gw := range gateways {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", gw.Name, gw.Currency), gw.Id))
	}
	destination := ""
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Deposit method").
				Options(options...).
				Value(&gatewayId),
			huh.NewSelect[string]().
				Title("Deposit to").
				Options(destinationOptions(form.Wallet(), form.Accounts())...).
				Value(&destination),
		),
	).Run()
	if err != nil {
		return err
	}

	if err := form.SelectGateway(gatewayId); err != nil {
		return err
	}
	kind, id := splitDestination(destination)
	if err := form.SelectDestination(ctx, kind, id); err != nil {
		return err
	}
	printGatewayInstructions(gateways, gatewayId)

details:
	for {
		printStep("DEPOSIT", "STEP 2: DETAILS")
		fmt.Println(hintStyle.Render("Limits: " + common.FormatBounds(form.Bounds(), form.Currency(), services.Currencies)))

		draft := form.Draft()
		amount, proof, hash := draft.Amount, draft.ProofPath, draft.TransactionHash
		fields := []huh.Field{
			huh.NewInput().
				Title(fmt.Sprintf("Amount (%s)", form.Currency())).
				Value(&amount).
				Validate(inlineMessage(form.SetAmount)),
		}
		if draft.ProofRequired {
			fields = append(fields, huh.NewInput().
				Title("Proof of payment").
				Description("Path to the transfer slip or receipt").
				Value(&proof).
				Validate(form.AttachProof))
		}
		if draft.HashRequired {
			fields = append(fields, huh.NewInput().
				Title("Transaction hash").
				Value(&hash))
		}
		if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
			return err
		}

		form.SetAmount(amount)
		if err := form.AttachProof(proof); err != nil {
			common.PrintError("%s", err)
			continue
		}
		form.SetTransactionHash(hash)

		if err := form.Next(); err != nil {
			var vErr *transfer.ValidationError
			if errors.As(err, &vErr) {
				common.PrintError("%s", vErr.Message)
				continue
			}
			return err
		}

		for {
			printStep("DEPOSIT", "STEP 3: CONFIRM")
			printDepositSummary(form)

			action, err := chooseAction(form.Error())
			if err != nil {
				return err
			}
			switch action {
			case actionCancel:
				common.PrintWarning("Deposit cancelled")
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
			printDepositResult(form.Result())
			return nil
		}
	}
}

func printGatewayInstructions(gateways []models.Gateway, id string) {
	for _, gw := range gateways {
		if gw.Id != id {
			continue
		}
		if gw.Instructions != "" {
			fmt.Println(hintStyle.Render(gw.Instructions))
		}
		for k, v := range gw.Details {
			fmt.Printf("  %s: %s\n", k, v)
		}
	}
}

func printDepositSummary(form *transfer.DepositForm) {
	draft := form.Draft()
	amount := draft.Amount
	if d, err := parseAmount(amount); err == nil {
		amount = common.FormatMoney(d, form.Currency(), services.Currencies)
	}

	lines := []string{
		"Method:      " + draft.GatewayId,
		"Deposit to:  " + strings.ToUpper(draft.DepositTo) + " " + draft.DestinationId,
		"Amount:      " + amount,
	}
	if draft.ProofPath != "" {
		lines = append(lines, "Proof:       "+draft.ProofPath)
	}
	if draft.TransactionHash != "" {
		lines = append(lines, "Tx hash:     "+draft.TransactionHash)
	}
	printSummary(lines...)
}

func printDepositResult(result *models.DepositResult) {
	if result == nil {
		return
	}
	common.PrintSuccess("Deposit submitted")
	fmt.Printf("  Reference: %s\n", firstNonEmpty(result.Reference, result.Id))
	fmt.Print("  Status:    ")
	common.StatusColor(result.Status).Println(result.Status)
	fmt.Printf("  Amount:    %s\n", common.FormatMoney(result.Amount, result.Currency, services.Currencies))
}
