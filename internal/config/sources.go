package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SourcesConfig はニュースソースと株価銘柄の定義を保持する。
// YAMLファイルから起動時に1回読み込む。ファイルが存在しない場合は
// 組み込みのデフォルト定義を使用する。
type SourcesConfig struct {
	Sources []SourceConfig `yaml:"sources"`
	Stocks  []StockSymbol  `yaml:"stocks"`
}

// SourceConfig は1つのRSSソースの定義。
type SourceConfig struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled *bool  `yaml:"enabled"`
}

// IsEnabled はソースが有効かどうかを返す。未指定の場合は有効扱い。
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// StockSymbol は追跡対象の銘柄定義。
type StockSymbol struct {
	Symbol  string `yaml:"symbol"`
	Company string `yaml:"company"`
}

// LoadSources はpathのYAMLからソース定義を読み込む。
// ファイルが存在しない場合はデフォルト定義を返す。
// パース失敗は設定ミスなのでエラーとして返す。
func LoadSources(path string) (*SourcesConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultSources(), nil
		}
		return nil, fmt.Errorf("failed to read sources file %s: %w", path, err)
	}

	var sc SourcesConfig
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}

	if len(sc.Sources) == 0 {
		sc.Sources = defaultSources().Sources
	}
	if len(sc.Stocks) == 0 {
		sc.Stocks = defaultSources().Stocks
	}

	return &sc, nil
}

// EnabledSources は有効なソースのみを返す。
func (sc *SourcesConfig) EnabledSources() []SourceConfig {
	out := make([]SourceConfig, 0, len(sc.Sources))
	for _, s := range sc.Sources {
		if s.IsEnabled() {
			out = append(out, s)
		}
	}
	return out
}

func defaultSources() *SourcesConfig {
	return &SourcesConfig{
		Sources: []SourceConfig{
			{Name: "TechCrunch", URL: "https://techcrunch.com/feed/"},
			{Name: "The Verge", URL: "https://www.theverge.com/rss/index.xml"},
			{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/technology-lab"},
			{Name: "VentureBeat", URL: "https://venturebeat.com/feed/"},
			{Name: "Hacker News", URL: "https://hnrss.org/frontpage"},
		},
		Stocks: []StockSymbol{
			{Symbol: "AAPL", Company: "Apple Inc."},
			{Symbol: "GOOGL", Company: "Alphabet Inc."},
			{Symbol: "MSFT", Company: "Microsoft Corporation"},
			{Symbol: "AMZN", Company: "Amazon.com Inc."},
			{Symbol: "META", Company: "Meta Platforms Inc."},
			{Symbol: "TSLA", Company: "Tesla Inc."},
			{Symbol: "NVDA", Company: "NVIDIA Corporation"},
			{Symbol: "NFLX", Company: "Netflix Inc."},
		},
	}
}
