// Package logging 依設定建立 glog.BaseLogger。
//
// 各層只依賴 glog.Logger 介面；main 依設定決定輸出格式與等級。
package logging

import (
	"os"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// DefaultName 寫在每筆日誌的 logger 欄位
const DefaultName = "ledger"

// Config 日誌設定
type Config struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error
	Format string `yaml:"format"` // text, json, pretty
}

// New 依設定建立輸出到 stderr 的 Logger，opts 可覆寫任何預設 (例如測試用的 writer)
func New(cfg Config, opts ...glog.Option) *glog.BaseLogger {
	base := []glog.Option{
		glog.WithName(DefaultName),
		glog.WithLevel(ParseLevel(cfg.Level)),
		glog.WithLoggerType(loggerType(cfg.Format)),
		glog.WithWriter(os.Stderr),
	}
	return glog.NewLogger(append(base, opts...)...)
}

// ParseLevel 正規化成 glog 的等級名稱，未知的等級一律視為 INFO
func ParseLevel(level string) string {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case glog.Trace:
		return glog.Trace
	case glog.Debug:
		return glog.Debug
	case glog.Warn, "WARNING":
		return glog.Warn
	case glog.Error:
		return glog.Error
	case glog.Fatal:
		return glog.Fatal
	default:
		return glog.Info
	}
}

func loggerType(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return glog.LoggerTypeJSON
	case "pretty":
		return glog.LoggerTypePretty
	default:
		return glog.LoggerTypeConsole
	}
}
