// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dark-devil9/Krishi-Mitra/pkg/registry"
)

var tablesPath string

func main() {
	addCommodityCmd := flag.NewFlagSet("add-commodity", flag.ExitOnError)
	addCityCmd := flag.NewFlagSet("add-city", flag.ExitOnError)
	addSynonymCmd := flag.NewFlagSet("add-synonym", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	showCmd := flag.NewFlagSet("show", flag.ExitOnError)

	// add-commodity flags
	commodityName := addCommodityCmd.String("name", "", "Canonical commodity name (e.g., wheat)")
	addCommodityCmd.StringVar(&tablesPath, "path", "configs/tables.json", "Path to tables document")

	// add-city flags
	cityName := addCityCmd.String("city", "", "City name (e.g., jaipur)")
	cityState := addCityCmd.String("state", "", "Canonical state the city belongs to")
	addCityCmd.StringVar(&tablesPath, "path", "configs/tables.json", "Path to tables document")

	// add-synonym flags
	synonym := addSynonymCmd.String("from", "", "Synonym or common misspelling (e.g., gehu)")
	canonical := addSynonymCmd.String("to", "", "Canonical commodity it maps to (e.g., wheat)")
	addSynonymCmd.StringVar(&tablesPath, "path", "configs/tables.json", "Path to tables document")

	validateCmd.StringVar(&tablesPath, "path", "configs/tables.json", "Path to tables document")
	showCmd.StringVar(&tablesPath, "path", "", "Path to tables document (empty shows the built-in dataset)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add-commodity":
		addCommodityCmd.Parse(os.Args[2:])
		if *commodityName == "" {
			fmt.Println("Error: name is required for add-commodity.")
			addCommodityCmd.Usage()
			os.Exit(1)
		}
		if err := mutate(func(doc *registry.Document) error {
			name := registry.Normalize(*commodityName)
			for _, c := range doc.Commodities {
				if registry.Normalize(c) == name {
					return fmt.Errorf("commodity %q already present", name)
				}
			}
			doc.Commodities = append(doc.Commodities, name)
			return nil
		}); err != nil {
			fmt.Printf("Error adding commodity: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added commodity: %s\n", *commodityName)

	case "add-city":
		addCityCmd.Parse(os.Args[2:])
		if *cityName == "" || *cityState == "" {
			fmt.Println("Error: city and state are required for add-city.")
			addCityCmd.Usage()
			os.Exit(1)
		}
		if err := mutate(func(doc *registry.Document) error {
			if doc.Cities == nil {
				doc.Cities = map[string]string{}
			}
			doc.Cities[registry.Normalize(*cityName)] = registry.Normalize(*cityState)
			return nil
		}); err != nil {
			fmt.Printf("Error adding city: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added city: %s -> %s\n", *cityName, *cityState)

	case "add-synonym":
		addSynonymCmd.Parse(os.Args[2:])
		if *synonym == "" || *canonical == "" {
			fmt.Println("Error: from and to are required for add-synonym.")
			addSynonymCmd.Usage()
			os.Exit(1)
		}
		if err := mutate(func(doc *registry.Document) error {
			if doc.CommoditySynonyms == nil {
				doc.CommoditySynonyms = map[string]string{}
			}
			doc.CommoditySynonyms[registry.Normalize(*synonym)] = registry.Normalize(*canonical)
			return nil
		}); err != nil {
			fmt.Printf("Error adding synonym: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added synonym: %s -> %s\n", *synonym, *canonical)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		tables, err := registry.Load(tablesPath)
		if err != nil {
			fmt.Printf("Tables validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Tables validation passed (version %s).\n", tables.Version())

	case "show":
		showCmd.Parse(os.Args[2:])
		var tables *registry.Tables
		if tablesPath == "" {
			tables = registry.Default()
		} else {
			var err error
			tables, err = registry.Load(tablesPath)
			if err != nil {
				fmt.Printf("Error loading tables: %v\n", err)
				os.Exit(1)
			}
		}
		fmt.Printf("Version:     %s\n", tables.Version())
		fmt.Printf("States:      %d\n", len(tables.States()))
		fmt.Printf("Commodities: %d\n", len(tables.Commodities()))
		fmt.Printf("State list:  %s\n", strings.Join(tables.States(), ", "))

	case "help":
		fallthrough
	default:
		help()
	}
}

// mutate loads the document, applies the edit, re-validates the result
// through the same schema the service uses, and writes it back with a bumped
// version stamp. A document that fails validation is never written.
func mutate(edit func(doc *registry.Document) error) error {
	raw, err := os.ReadFile(tablesPath)
	if err != nil {
		return fmt.Errorf("read tables document: %w", err)
	}

	var doc registry.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode tables document: %w", err)
	}

	if err := edit(&doc); err != nil {
		return err
	}
	doc.Version = time.Now().UTC().Format("2006-01-02")

	out, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tables document: %w", err)
	}
	if _, err := registry.Parse(out); err != nil {
		return fmt.Errorf("edited document rejected: %w", err)
	}

	if err := os.WriteFile(tablesPath, out, 0o644); err != nil {
		return fmt.Errorf("write tables document: %w", err)
	}
	return nil
}

func help() {
	fmt.Println(`registry-updater manages the canonical entity tables document.

Usage:
  registry-updater add-commodity -name <commodity> [-path configs/tables.json]
  registry-updater add-city -city <city> -state <state> [-path configs/tables.json]
  registry-updater add-synonym -from <alias> -to <commodity> [-path configs/tables.json]
  registry-updater validate [-path configs/tables.json]
  registry-updater show [-path configs/tables.json]

Edits are schema-validated before the file is written; an invalid edit leaves
the document untouched.`)
}
