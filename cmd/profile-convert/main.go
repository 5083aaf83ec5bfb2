package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chrissnell/zhl16/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML profile file (required)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		dryRun     = flag.Bool("dry-run", false, "Show what would be done without executing")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <profile.yaml> -sqlite <profiles.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Check if YAML file exists
	if _, err := os.Stat(*yamlFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: YAML file does not exist: %s\n", *yamlFile)
		os.Exit(1)
	}

	fmt.Printf("Converting YAML profile to SQLite...\n")
	fmt.Printf("  Source: %s\n", *yamlFile)
	fmt.Printf("  Target: %s\n", *sqliteFile)

	// Load YAML profile
	p, err := config.NewYAMLProvider(*yamlFile).LoadProfile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML profile: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("  Loaded profile %q: model %s, %d gases, %d segments\n",
		p.Name, p.ModelName(), len(p.Gases), len(p.Segments))

	if *dryRun {
		fmt.Println("DRY RUN complete - no database written")
		return
	}

	provider, err := config.NewSQLiteProvider(*sqliteFile, p.Name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening SQLite database: %v\n", err)
		os.Exit(1)
	}
	defer provider.Close()

	if err := provider.SaveProfile(p); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving profile: %v\n", err)
		os.Exit(1)
	}

	// Verify by reading the profile back
	if _, err := provider.LoadProfile(); err != nil {
		fmt.Fprintf(os.Stderr, "Error verifying saved profile: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Conversion complete")
}
