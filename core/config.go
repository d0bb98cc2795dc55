package core

import (
	"fmt"
	"strings"
	"time"
)

type CacheConfig struct {
	TTLSeconds int `koanf:"ttl_seconds" mapstructure:"ttl_seconds"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type RefreshConfig struct {
	MarginSeconds      int `koanf:"margin_seconds" mapstructure:"margin_seconds"`
	FallbackTTLSeconds int `koanf:"fallback_ttl_seconds" mapstructure:"fallback_ttl_seconds"`
}

func (c RefreshConfig) Margin() time.Duration {
	return time.Duration(c.MarginSeconds) * time.Second
}

func (c RefreshConfig) FallbackTTL() time.Duration {
	return time.Duration(c.FallbackTTLSeconds) * time.Second
}

type RankConfig struct {
	DelayMillis int `koanf:"delay_millis" mapstructure:"delay_millis"`
}

func (c RankConfig) Delay() time.Duration {
	return time.Duration(c.DelayMillis) * time.Millisecond
}

type LeadsConfig struct {
	MinFillMillis int `koanf:"min_fill_millis" mapstructure:"min_fill_millis"`
	WindowSeconds int `koanf:"window_seconds" mapstructure:"window_seconds"`
	WindowLimit   int `koanf:"window_limit" mapstructure:"window_limit"`
}

func (c LeadsConfig) MinFill() time.Duration {
	return time.Duration(c.MinFillMillis) * time.Millisecond
}

func (c LeadsConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

type Config struct {
	ServiceName string        `koanf:"service_name" mapstructure:"service_name"`
	Cache       CacheConfig   `koanf:"cache" mapstructure:"cache"`
	Refresh     RefreshConfig `koanf:"refresh" mapstructure:"refresh"`
	Rank        RankConfig    `koanf:"rank" mapstructure:"rank"`
	Leads       LeadsConfig   `koanf:"leads" mapstructure:"leads"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "seo-reports",
		Cache:       CacheConfig{TTLSeconds: 300},
		Refresh:     RefreshConfig{MarginSeconds: 60, FallbackTTLSeconds: 3600},
		Rank:        RankConfig{DelayMillis: 500},
		Leads:       LeadsConfig{MinFillMillis: 1500, WindowSeconds: 60, WindowLimit: 10},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("core: cache.ttl_seconds must be positive")
	}
	if c.Refresh.MarginSeconds < 0 {
		return fmt.Errorf("core: refresh.margin_seconds must not be negative")
	}
	if c.Refresh.FallbackTTLSeconds <= 0 {
		return fmt.Errorf("core: refresh.fallback_ttl_seconds must be positive")
	}
	if c.Rank.DelayMillis < 0 {
		return fmt.Errorf("core: rank.delay_millis must not be negative")
	}
	if c.Leads.MinFillMillis < 0 {
		return fmt.Errorf("core: leads.min_fill_millis must not be negative")
	}
	if c.Leads.WindowSeconds <= 0 {
		return fmt.Errorf("core: leads.window_seconds must be positive")
	}
	if c.Leads.WindowLimit <= 0 {
		return fmt.Errorf("core: leads.window_limit must be positive")
	}
	return nil
}
