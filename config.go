package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds process-level settings
type Config struct {
	Addr      string
	ClientDir string
	DBPath    string // "" disables accounts and match history
	Tuning    string // "" uses the embedded tuning
	Maps      string // "" uses the embedded catalog
	RecordDir string // "" disables match recording
	PublicURL string
}

// LoadEnv reads .env files when present. A missing file is not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: %s: %w", f, err)
		}
		log.Printf("config: loaded %s", f)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseConfig reads flags from args, with environment variables as defaults
func ParseConfig(args []string) (Config, error) {
	var c Config
	fset := flag.NewFlagSet("luxfield", flag.ContinueOnError)
	fset.StringVar(&c.Addr, "addr", envOr("LUX_ADDR", ":8080"), "HTTP listen address")
	fset.StringVar(&c.ClientDir, "client", envOr("LUX_CLIENT_DIR", ""), "Path to client directory (default: ../client)")
	fset.StringVar(&c.DBPath, "db", envOr("LUX_DB", "luxfield.db"), "SQLite database path, empty to disable")
	fset.StringVar(&c.Tuning, "tuning", envOr("LUX_TUNING", ""), "Simulation tuning YAML")
	fset.StringVar(&c.Maps, "maps", envOr("LUX_MAPS", ""), "Map catalog YAML")
	fset.StringVar(&c.RecordDir, "record", envOr("LUX_RECORD_DIR", ""), "Directory for match recordings")
	fset.StringVar(&c.PublicURL, "public-url", envOr("LUX_PUBLIC_URL", "http://localhost:8080"), "Base URL used in join links")
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	if c.ClientDir == "" {
		exe, _ := os.Executable()
		c.ClientDir = filepath.Join(filepath.Dir(exe), "..", "client")
		// Fallback for development
		if _, err := os.Stat(c.ClientDir); os.IsNotExist(err) {
			c.ClientDir = "../client"
		}
	}
	return c, nil
}
