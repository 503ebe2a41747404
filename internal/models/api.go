/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Envelope is the response wrapper every backend endpoint returns
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Account represents an MT5 trading account and its transfer limits
type Account struct {
	Id                string           `json:"id"`
	AccountNumber     string           `json:"account_number"`
	AccountType       string           `json:"account_type"`
	Currency          string           `json:"currency"`
	Leverage          int              `json:"leverage"`
	Balance           decimal.Decimal  `json:"balance"`
	Equity            decimal.Decimal  `json:"equity"`
	MinimumDeposit    *decimal.Decimal `json:"minimum_deposit,omitempty"`
	MaximumDeposit    *decimal.Decimal `json:"maximum_deposit,omitempty"`
	MinimumWithdrawal *decimal.Decimal `json:"minimum_withdrawal,omitempty"`
	MaximumWithdrawal *decimal.Decimal `json:"maximum_withdrawal,omitempty"`
}

// Wallet represents the user's internal cash balance
type Wallet struct {
	WalletNumber      string           `json:"wallet_number"`
	Currency          string           `json:"currency"`
	Balance           decimal.Decimal  `json:"balance"`
	MinimumDeposit    *decimal.Decimal `json:"minimum_deposit,omitempty"`
	MaximumDeposit    *decimal.Decimal `json:"maximum_deposit,omitempty"`
	MinimumWithdrawal *decimal.Decimal `json:"minimum_withdrawal,omitempty"`
	MaximumWithdrawal *decimal.Decimal `json:"maximum_withdrawal,omitempty"`
}

// Gateway is a configured deposit payment method
type Gateway struct {
	Id            string            `json:"id"`
	Name          string            `json:"name"`
	Type          string            `json:"type"` // "bank", "crypto", "card"
	Currency      string            `json:"currency"`
	Instructions  string            `json:"instructions,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
	RequiresProof bool              `json:"requires_proof"`
	RequiresHash  bool              `json:"requires_hash"`
	Active        bool              `json:"active"`
}

// KYCStatus is the identity verification state gating withdrawals
type KYCStatus struct {
	Status    string    `json:"status"` // "approved", "pending", "rejected", "not_submitted"
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaymentDetail is a saved withdrawal destination (crypto address, bank account)
type PaymentDetail struct {
	Id       string `json:"id"`
	Type     string `json:"type"`
	Label    string `json:"label"`
	Currency string `json:"currency"`
	Network  string `json:"network,omitempty"`
	Address  string `json:"address"`
	Status   string `json:"status"`
}

// LoginResult is returned by the auth endpoint
type LoginResult struct {
	Token string `json:"token"`
	User  struct {
		Id    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

// DepositResult represents the backend's acknowledgement of a deposit request
type DepositResult struct {
	Id        string          `json:"id"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Reference string          `json:"reference,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// WithdrawalResult represents the backend's acknowledgement of a withdrawal
type WithdrawalResult struct {
	Id        string          `json:"id"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Address   string          `json:"address,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// TransactionRecord represents a row in the transaction history report
type TransactionRecord struct {
	Id        string          `json:"id"`
	Type      string          `json:"type"` // "deposit", "withdrawal", "transfer"
	Method    string          `json:"method,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	Reference string          `json:"reference,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// TransactionHistory is a page of transaction records
type TransactionHistory struct {
	Items []TransactionRecord `json:"items"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
	Total int                 `json:"total"`
}

// Deal is a closed position on an MT5 account statement
type Deal struct {
	Ticket     string          `json:"ticket"`
	Symbol     string          `json:"symbol"`
	Type       string          `json:"type"`
	Volume     decimal.Decimal `json:"volume"`
	OpenPrice  decimal.Decimal `json:"open_price"`
	ClosePrice decimal.Decimal `json:"close_price"`
	Profit     decimal.Decimal `json:"profit"`
	OpenTime   time.Time       `json:"open_time"`
	CloseTime  time.Time       `json:"close_time"`
}

// AccountStatement is the MT5 account statement report
type AccountStatement struct {
	AccountNumber string          `json:"account_number"`
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	Equity        decimal.Decimal `json:"equity"`
	Deposits      decimal.Decimal `json:"deposits"`
	Withdrawals   decimal.Decimal `json:"withdrawals"`
	ProfitLoss    decimal.Decimal `json:"profit_loss"`
	Deals         []Deal          `json:"deals"`
}

// Ticket represents a support ticket
type Ticket struct {
	Id        string          `json:"id"`
	Subject   string          `json:"subject"`
	Category  string          `json:"category"`
	Priority  string          `json:"priority,omitempty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Messages  []TicketMessage `json:"messages,omitempty"`
}

// TicketMessage is a single message in a ticket thread
type TicketMessage struct {
	Id        string    `json:"id"`
	Sender    string    `json:"sender"` // "user" or "support"
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
