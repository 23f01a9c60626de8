package database

import (
	"testing"

	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"trace", gormlogger.Info},
		{"INFO", gormlogger.Info},
		{"", gormlogger.Warn},
		{"nonsense", gormlogger.Warn},
	}
	for _, tt := range tests {
		if got := gormLogLevel(tt.level); got != tt.want {
			t.Errorf("gormLogLevel(%q) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestConnectRejectsEmptyDSN(t *testing.T) {
	if _, err := Connect(Config{}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}
