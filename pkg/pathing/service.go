package pathing

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	DataDirEnv   = "ENERGY_DASHBOARD_DATA_DIR"
	ConfigDirEnv = "ENERGY_DASHBOARD_CONFIG_DIR"
)

// EnsureDirs creates the data and config directories when missing.
func EnsureDirs() error {
	for _, dir := range []string{GetDataDir(), GetConfigDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

func GetReadingDbPath() string {
	return filepath.Join(GetDataDir(), "energy-readings.db")
}

func GetAccountDbPath() string {
	return filepath.Join(GetDataDir(), "energy-accounts.db")
}

func GetDataDir() string {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir
	}
	return "/var/lib/home_energy_dashboard"
}

func GetConfigDir() string {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir
	}
	return "/etc/home_energy_dashboard"
}
