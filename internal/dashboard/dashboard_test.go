package dashboard

import (
	"context"
	"errors"
	"testing"

	"forex-portal-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	wallet   *models.Wallet
	accounts []models.Account
	kyc      *models.KYCStatus
	err      error
}

func (f *fakeBackend) GetWallet(context.Context) (*models.Wallet, error) { return f.wallet, nil }

func (f *fakeBackend) ListAccounts(context.Context) ([]models.Account, error) {
	return f.accounts, f.err
}

func (f *fakeBackend) GetKYCStatus(context.Context) (*models.KYCStatus, error) { return f.kyc, nil }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func TestLoad(t *testing.T) {
	backend := &fakeBackend{
		wallet: &models.Wallet{WalletNumber: "W-1", Currency: "USD", Balance: d("100.50"), MaximumDeposit: ptr("1000")},
		accounts: []models.Account{
			{Id: "a1", AccountNumber: "1001", Currency: "USD", Balance: d("900"), Equity: d("950.25"),
				MinimumDeposit: ptr("10"), MaximumDeposit: ptr("3000"), MaximumWithdrawal: ptr("500")},
			{Id: "a2", AccountNumber: "2001", Currency: "EUR", Balance: d("40"), Equity: d("38")},
		},
		kyc: &models.KYCStatus{Status: "approved"},
	}

	overview, err := Load(context.Background(), backend)
	require.NoError(t, err)
	assert.True(t, overview.WithdrawalsAllowed())

	require.Len(t, overview.Accounts, 2)
	usd := overview.Accounts[0]
	require.NotNil(t, usd.Deposit.Max)
	assert.True(t, usd.Deposit.Max.Equal(d("2100")))
	require.NotNil(t, usd.Withdrawal.Max)
	assert.True(t, usd.Withdrawal.Max.Equal(d("500")))
	assert.True(t, overview.Accounts[1].Deposit.Unbounded())

	// wallet balance 100.50 against a 1000 ceiling
	require.NotNil(t, overview.WalletDeposit.Max)
	assert.True(t, overview.WalletDeposit.Max.Equal(d("899.5")))

	require.Len(t, overview.Totals, 2)
	assert.Equal(t, "EUR", overview.Totals[0].Currency)
	assert.Equal(t, "USD", overview.Totals[1].Currency)
	assert.True(t, overview.Totals[1].Balance.Equal(d("1000.50")))
	assert.True(t, overview.Totals[1].Equity.Equal(d("1050.75")))
}

func TestLoad_Error(t *testing.T) {
	backend := &fakeBackend{err: errors.New("accounts unavailable"), kyc: &models.KYCStatus{Status: "pending"}}

	_, err := Load(context.Background(), backend)
	assert.EqualError(t, err, "accounts unavailable")
}

func TestWithdrawalsAllowed(t *testing.T) {
	assert.False(t, (&Overview{}).WithdrawalsAllowed())
	assert.False(t, (&Overview{KYC: &models.KYCStatus{Status: "pending"}}).WithdrawalsAllowed())
}
