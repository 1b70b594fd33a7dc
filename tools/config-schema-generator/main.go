package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/grovetools/fleet/config"
)

func main() {
	schemaBytes, err := config.GenerateSchema()
	if err != nil {
		log.Fatalf("Error generating schema: %v", err)
	}

	// Re-open additionalProperties at the root so extension sections
	// (logging, future tools) validate against the embedded schema.
	var schemaMap map[string]interface{}
	if err := json.Unmarshal(schemaBytes, &schemaMap); err != nil {
		log.Fatalf("Error parsing generated schema: %v", err)
	}
	schemaMap["additionalProperties"] = true

	out, err := json.MarshalIndent(schemaMap, "", "  ")
	if err != nil {
		log.Fatalf("Error serializing schema: %v", err)
	}
	out = append(out, '\n')

	outputDir := "schema"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("Error creating schema directory: %v", err)
	}

	outputPath := filepath.Join(outputDir, "fleet.embedded.schema.json")
	if err := os.WriteFile(outputPath, out, 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated embedded schema at %s", outputPath)
}
