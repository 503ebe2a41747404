package cmd

import (
	"fmt"
	"strings"

	"forex-portal-go/internal/api"
	"forex-portal-go/internal/common"
	"forex-portal-go/internal/models"
	"forex-portal-go/internal/money"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
)

// destinationOptions lists the wallet and MT5 accounts as "kind:id" values.
func destinationOptions(wallet *models.Wallet, accounts []models.Account) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(accounts)+1)
	if wallet != nil {
		label := fmt.Sprintf("Wallet %s (%s)", wallet.WalletNumber,
			common.FormatMoney(wallet.Balance, wallet.Currency, services.Currencies))
		options = append(options, huh.NewOption(label, api.DestinationWallet+":"+wallet.WalletNumber))
	}
	for _, a := range accounts {
		label := fmt.Sprintf("MT5 %s %s (%s)", a.AccountNumber, a.AccountType,
			common.FormatMoney(a.Balance, a.Currency, services.Currencies))
		options = append(options, huh.NewOption(label, api.DestinationMT5+":"+a.AccountNumber))
	}
	return options
}

func splitDestination(value string) (kind, id string) {
	kind, id, _ = strings.Cut(value, ":")
	return kind, id
}

func parseAmount(raw string) (decimal.Decimal, error) {
	return money.ParsePositive(raw)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
