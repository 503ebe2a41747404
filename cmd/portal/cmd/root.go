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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"forex-portal-go/internal/api"
	"forex-portal-go/internal/common"
	"forex-portal-go/internal/config"
	"forex-portal-go/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	services      *common.Services
	loggerCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "Client for the forex CRM portal",
	Long: `Portal is a terminal client for the forex CRM.

It provides tools for:
  - Logging in and keeping a local session
  - Reviewing the wallet, MT5 accounts and transfer limits
  - Depositing to and withdrawing from MT5 accounts or the wallet
  - Browsing and downloading transaction reports
  - Opening and following support tickets`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initServices,
}

// Execute adds all child commands to the root command and runs it until
// the command returns or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if services != nil {
		services.Close()
	}
	if err != nil {
		common.PrintError("%s", userMessage(err))
	}
	if loggerCleanup != nil {
		loggerCleanup()
	}
	return err
}

func initServices(cmd *cobra.Command, args []string) error {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "version", "help", "completion":
			return nil
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, cleanup := common.InitializeLogger(cfg.LogLevel)
	loggerCleanup = cleanup

	services, err = common.InitializeServices(cmd.Context(), cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	return nil
}

// sessionContext returns the command context carrying the logged-in session.
func sessionContext(cmd *cobra.Command) (context.Context, error) {
	ctx, err := services.SessionContext(cmd.Context())
	if errors.Is(err, session.ErrNotLoggedIn) {
		return nil, errors.New("not logged in, run `portal login` first")
	}
	return ctx, err
}

func userMessage(err error) string {
	if errors.Is(err, api.ErrUnauthorized) {
		return "Your session has expired. Run `portal login` to sign in again."
	}
	return api.UserMessage(err)
}
