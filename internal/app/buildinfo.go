package app

import (
	"fmt"
	"strings"
	"time"
)

var (
	// Version is filled by ldflags in release builds.
	Version = "dev"
	// BuildDate is filled by ldflags in release builds.
	BuildDate = ""
)

func BuildVersion() string {
	version := strings.TrimSpace(Version)
	if version == "" {
		return "dev"
	}

	return version
}

func BuildVersionWithDate() string {
	version := BuildVersion()
	raw := strings.TrimSpace(BuildDate)
	if raw == "" {
		return version
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		raw = parsed.Format("2006-01-02")
	}

	return fmt.Sprintf("%s (%s)", version, raw)
}
