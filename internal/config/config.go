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

package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"forex-portal-go/internal/models"
)

func Load() (*models.Config, error) {
	baseURL := strings.TrimRight(getEnvString("PORTAL_API_BASE_URL", ""), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("PORTAL_API_BASE_URL is required")
	}
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid PORTAL_API_BASE_URL: %q", baseURL)
	}

	httpTimeout, err := getEnvDuration("PORTAL_HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pollInterval, err := getEnvDuration("SUPPORT_POLL_INTERVAL", 3*time.Second)
	if err != nil {
		return nil, err
	}
	if pollInterval <= 0 {
		return nil, fmt.Errorf("SUPPORT_POLL_INTERVAL must be positive, got %v", pollInterval)
	}

	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		API: models.APIConfig{
			BaseURL:        baseURL,
			Timeout:        httpTimeout,
			CurrenciesFile: getEnvString("CURRENCIES_FILE", ""),
		},
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "portal.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 4),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Support: models.SupportConfig{
			PollInterval: pollInterval,
		},
		Reports: models.ReportsConfig{
			DownloadDir: getEnvString("DOWNLOAD_DIR", "."),
		},
		Metrics: models.MetricsConfig{
			Addr: getEnvString("METRICS_ADDR", ""),
		},
		LogLevel: strings.ToLower(getEnvString("LOG_LEVEL", "info")),
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
