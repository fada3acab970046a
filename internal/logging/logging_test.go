package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "demo.log")
	if err := Init("debug", path, false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if Get().GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v", Get().GetLevel())
	}
	Component("effect").Debug("bloom ready")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "bloom ready") || !strings.Contains(string(data), "component=effect") {
		t.Errorf("log file = %q", data)
	}
}

func TestInitUnknownLevel(t *testing.T) {
	if err := Init("chatty", "", false); err != nil {
		t.Fatal(err)
	}
	if Get().GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %v, want info", Get().GetLevel())
	}
}
