package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/phst-randomizer/zed/common"
	"github.com/phst-randomizer/zed/internal/scan"
)

// envConfig names a config file when the -config flag is not given.
const envConfig = "ZED_SCAN_CONFIG"

type fileConfig struct {
	Workers int                   `toml:"workers"`
	Report  string                `toml:"report"`
	Game    map[string]gameConfig `toml:"game"`
}

type gameConfig struct {
	Root string `toml:"root"`
}

// loadConfig starts from the built-in defaults and applies only the keys
// the file actually sets. A [game] table replaces the default target list,
// so a config naming one game scans just that game. The second result is
// the report path from the file, empty when unset.
func loadConfig(path string) (scan.Config, string, error) {
	cfg := scan.DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return scan.Config{}, "", fmt.Errorf("load scan config: %w", err)
	}

	if meta.IsDefined("workers") {
		cfg.Workers = raw.Workers
	}

	if meta.IsDefined("game") {
		names := make([]string, 0, len(raw.Game))
		for name := range raw.Game {
			names = append(names, name)
		}
		sort.Strings(names)

		targets := make([]scan.Target, 0, len(names))
		for _, name := range names {
			g, err := common.ParseGame(name)
			if err != nil {
				return scan.Config{}, "", fmt.Errorf("scan config: %w", err)
			}
			root := strings.TrimSpace(raw.Game[name].Root)
			if root == "" {
				root = defaultRoot(g)
			}
			targets = append(targets, scan.Target{Game: g, Root: root})
		}
		cfg.Targets = targets
	}

	return cfg, raw.Report, nil
}

func defaultRoot(g common.Game) string {
	return filepath.FromSlash("../RETAIL/" + g.String() + "/root")
}
