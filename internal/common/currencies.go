package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"forex-portal-go/internal/money"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type CurrenciesConfig struct {
	Currencies []money.Currency `yaml:"currencies"`
}

// LoadCurrencies reads the minor-unit table from a YAML file of the form
//
//	currencies:
//	  - code: USD
//	    exponent: 2
//	    symbol: "$"
func LoadCurrencies(currenciesFile string) ([]money.Currency, error) {
	var currenciesPath string
	if filepath.IsAbs(currenciesFile) {
		currenciesPath = currenciesFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		currenciesPath = filepath.Join(wd, currenciesFile)
	}

	data, err := os.ReadFile(currenciesPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", currenciesFile, err)
	}

	var config CurrenciesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", currenciesFile, err)
	}

	seen := make(map[string]bool, len(config.Currencies))
	for i, c := range config.Currencies {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if code == "" {
			return nil, fmt.Errorf("currency at index %d missing code", i)
		}
		if c.Exponent < 0 || c.Exponent > 8 {
			return nil, fmt.Errorf("currency %s has exponent %d outside 0..8", code, c.Exponent)
		}
		if seen[code] {
			return nil, fmt.Errorf("currency %s listed twice", code)
		}
		seen[code] = true
		config.Currencies[i].Code = code
	}

	return config.Currencies, nil
}

// LoadCurrencyTable returns the default table (two decimals, "$") when no
// file is configured.
func LoadCurrencyTable(currenciesFile string) (*money.Table, error) {
	if currenciesFile == "" {
		return money.NewTable(nil), nil
	}

	currencies, err := LoadCurrencies(currenciesFile)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Loaded currency table",
		zap.String("file", currenciesFile),
		zap.Int("currencies", len(currencies)))
	return money.NewTable(currencies), nil
}
