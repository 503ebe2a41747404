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

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"forex-portal-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Destination kinds accepted by deposit_to and withdraw_from
const (
	DestinationMT5    = "mt5"
	DestinationWallet = "wallet"
)

// DepositRequest is the multipart body of POST /deposits/request
type DepositRequest struct {
	GatewayId       string
	Amount          decimal.Decimal
	Currency        string
	DepositTo       string // DestinationMT5 or DestinationWallet
	MT5AccountId    string
	WalletNumber    string
	ProofPath       string
	TransactionHash string
	IdempotencyKey  string
}

// WithdrawalRequest is the JSON body of POST /withdrawals
type WithdrawalRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	PaymentDetailId string          `json:"payment_detail_id"`
	WithdrawFrom    string          `json:"withdraw_from"`
	MT5AccountId    string          `json:"mt5_account_id,omitempty"`
	WalletNumber    string          `json:"wallet_number,omitempty"`
	Password        string          `json:"password,omitempty"`
	IdempotencyKey  string          `json:"-"`
}

func (c *Client) CreateDeposit(ctx context.Context, req DepositRequest) (*models.DepositResult, error) {
	body, contentType, err := encodeDeposit(req)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Submitting deposit request",
		zap.String("gateway_id", req.GatewayId),
		zap.String("deposit_to", req.DepositTo),
		zap.String("amount", req.Amount.String()),
		zap.String("currency", req.Currency),
		zap.Bool("has_proof", req.ProofPath != ""))

	var result models.DepositResult
	r := request{
		method:         http.MethodPost,
		path:           "/deposits/request",
		body:           body,
		contentType:    contentType,
		idempotencyKey: req.IdempotencyKey,
	}
	if err := c.do(ctx, r, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func encodeDeposit(req DepositRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"gateway_id", req.GatewayId},
		{"amount", req.Amount.String()},
		{"currency", req.Currency},
		{"deposit_to", req.DepositTo},
	}
	switch req.DepositTo {
	case DestinationMT5:
		fields = append(fields, [2]string{"mt5_account_id", req.MT5AccountId})
	case DestinationWallet:
		fields = append(fields, [2]string{"wallet_number", req.WalletNumber})
	default:
		return nil, "", fmt.Errorf("unknown deposit destination %q", req.DepositTo)
	}
	if req.TransactionHash != "" {
		fields = append(fields, [2]string{"transaction_hash", req.TransactionHash})
	}

	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("unable to write field %s: %w", f[0], err)
		}
	}

	if req.ProofPath != "" {
		if err := attachFile(w, "proof", req.ProofPath); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("unable to finish multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func attachFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open %s: %w", field, err)
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("unable to create %s part: %w", field, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("unable to read %s: %w", field, err)
	}
	return nil
}

func (c *Client) CreateWithdrawal(ctx context.Context, req WithdrawalRequest) (*models.WithdrawalResult, error) {
	zap.L().Info("Submitting withdrawal request",
		zap.String("payment_detail_id", req.PaymentDetailId),
		zap.String("withdraw_from", req.WithdrawFrom),
		zap.String("amount", req.Amount.String()),
		zap.String("currency", req.Currency))

	var result models.WithdrawalResult
	r := request{
		method:         http.MethodPost,
		path:           "/withdrawals",
		idempotencyKey: req.IdempotencyKey,
	}
	if err := c.do(ctx, r, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
