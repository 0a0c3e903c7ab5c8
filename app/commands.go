package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"gopkg.in/yaml.v3"

	"github.com/umputun/threatdash/app/store"
)

// ImportCmd implements the import subcommand, loading threat records from a yaml or json file.
type ImportCmd struct {
	File string `short:"f" long:"file" required:"true" description:"yaml or json file with a list of threats"`
}

// threatRecord is a threat as written in the import file.
type threatRecord struct {
	Source       string `yaml:"source"`
	Type         string `yaml:"type"`
	Keyword      string `yaml:"keyword"`
	Domain       string `yaml:"domain"`
	DateDetected string `yaml:"date_detected"` // empty means now
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format %q", s)
}

// Execute runs the import command
func (c *ImportCmd) Execute(_ []string) error {
	setupLogs(opts.Debug)
	n, err := c.run(context.Background(), opts.DB)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d threats from %s\n", n, c.File)
	return nil
}

func (c *ImportCmd) run(ctx context.Context, dbURL string) (int, error) {
	records, err := loadThreats(c.File)
	if err != nil {
		return 0, err
	}

	db, err := store.New(dbURL)
	if err != nil {
		return 0, fmt.Errorf("failed to initialize store: %w", err)
	}
	defer db.Close()

	var imported int
	for i, rec := range records {
		if strings.TrimSpace(rec.Domain) == "" {
			log.Printf("[WARN] skip record %d, empty domain", i)
			continue
		}
		detected, dateErr := parseDate(rec.DateDetected)
		if dateErr != nil {
			log.Printf("[WARN] skip record %d, %v", i, dateErr)
			continue
		}
		if _, addErr := db.AddThreat(ctx, store.Threat{Source: rec.Source, Type: rec.Type, Keyword: rec.Keyword,
			Domain: rec.Domain, DateDetected: detected}); addErr != nil {
			return imported, fmt.Errorf("failed to import record %d: %w", i, addErr)
		}
		imported++
	}
	log.Printf("[INFO] imported %d of %d threats from %s", imported, len(records), c.File)
	return imported, nil
}

// loadThreats reads the import file. json is valid yaml, so one decoder serves both.
func loadThreats(path string) ([]threatRecord, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from cli
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	var records []threatRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse import file: %w", err)
	}
	return records, nil
}
