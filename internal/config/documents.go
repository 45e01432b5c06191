package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DocumentSettings drives invoice numbering and document defaults. It lives
// in a config file rather than the environment so operators can change it
// without a restart.
type DocumentSettings struct {
	NumberPrefix    string   `mapstructure:"numberPrefix" json:"number_prefix"`
	NumberPadding   int      `mapstructure:"numberPadding" json:"number_padding"`
	DueTermDays     int      `mapstructure:"dueTermDays" json:"due_term_days"`
	DefaultCurrency string   `mapstructure:"defaultCurrency" json:"default_currency"`
	VATRates        []string `mapstructure:"vatRates" json:"vat_rates"`
}

func DefaultDocumentSettings() DocumentSettings {
	return DocumentSettings{
		NumberPrefix:    "INV",
		NumberPadding:   4,
		DueTermDays:     14,
		DefaultCurrency: "EUR",
		VATRates:        []string{"0", "0.05", "0.18"},
	}
}

// DocumentSettingsHolder keeps the current settings behind an atomic swap so
// readers never observe a half-applied reload.
type DocumentSettingsHolder struct {
	current atomic.Value // holds DocumentSettings
}

func NewDocumentSettingsHolder() (*DocumentSettingsHolder, error) {
	v := viper.New()

	v.SetConfigName("billora")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/billora")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BILLORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultDocumentSettings()
		v.SetDefault("documents.numberPrefix", defaults.NumberPrefix)
		v.SetDefault("documents.numberPadding", defaults.NumberPadding)
		v.SetDefault("documents.dueTermDays", defaults.DueTermDays)
		v.SetDefault("documents.defaultCurrency", defaults.DefaultCurrency)
		v.SetDefault("documents.vatRates", defaults.VATRates)
	}

	var cfg DocumentSettings
	if err := v.UnmarshalKey("documents", &cfg); err != nil {
		return nil, err
	}
	if err := validateDocumentSettings(cfg); err != nil {
		return nil, err
	}

	holder := &DocumentSettingsHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated DocumentSettings
		if err := v.UnmarshalKey("documents", &updated); err != nil {
			log.Printf("[document-settings] reload failed: %v", err)
			return
		}
		if err := validateDocumentSettings(updated); err != nil {
			log.Printf("[document-settings] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[document-settings] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticDocumentSettingsHolder wraps fixed settings without any file
// watching. Intended for tests and tooling.
func NewStaticDocumentSettingsHolder(cfg DocumentSettings) *DocumentSettingsHolder {
	holder := &DocumentSettingsHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *DocumentSettingsHolder) Get() DocumentSettings {
	return h.current.Load().(DocumentSettings)
}

func validateDocumentSettings(cfg DocumentSettings) error {
	if strings.TrimSpace(cfg.NumberPrefix) == "" {
		return errors.New("documents.numberPrefix cannot be empty")
	}
	if cfg.NumberPadding < 1 || cfg.NumberPadding > 12 {
		return errors.New("documents.numberPadding must be between 1 and 12")
	}
	if cfg.DueTermDays < 0 {
		return errors.New("documents.dueTermDays cannot be negative")
	}
	return nil
}
