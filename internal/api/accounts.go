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
	"context"
	"fmt"
	"net/http"

	"forex-portal-go/internal/models"
)

func (c *Client) ListGateways(ctx context.Context) ([]models.Gateway, error) {
	var gateways []models.Gateway
	if err := c.do(ctx, request{method: http.MethodGet, path: "/deposits/gateways"}, nil, &gateways); err != nil {
		return nil, fmt.Errorf("unable to list deposit gateways: %w", err)
	}
	return gateways, nil
}

func (c *Client) GetWallet(ctx context.Context) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := c.do(ctx, request{method: http.MethodGet, path: "/wallet"}, nil, &wallet); err != nil {
		return nil, fmt.Errorf("unable to get wallet: %w", err)
	}
	return &wallet, nil
}

func (c *Client) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := c.do(ctx, request{method: http.MethodGet, path: "/accounts"}, nil, &accounts); err != nil {
		return nil, fmt.Errorf("unable to list accounts: %w", err)
	}
	return accounts, nil
}

func (c *Client) GetKYCStatus(ctx context.Context) (*models.KYCStatus, error) {
	var status models.KYCStatus
	if err := c.do(ctx, request{method: http.MethodGet, path: "/kyc/status"}, nil, &status); err != nil {
		return nil, fmt.Errorf("unable to get kyc status: %w", err)
	}
	return &status, nil
}

func (c *Client) ListPaymentDetails(ctx context.Context) ([]models.PaymentDetail, error) {
	var details []models.PaymentDetail
	if err := c.do(ctx, request{method: http.MethodGet, path: "/payment-details"}, nil, &details); err != nil {
		return nil, fmt.Errorf("unable to list payment details: %w", err)
	}
	return details, nil
}

// Login exchanges credentials for a bearer token. It is the only call made
// without a session.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var result models.LoginResult
	r := request{method: http.MethodPost, path: "/auth/login", anonymous: true}
	if err := c.do(ctx, r, payload, &result); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("login failed: server returned no token")
	}
	return &result, nil
}
