package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/umputun/lingoscope/pkg/config"
)

// regenerates the JSON schema for config.json, invoked via go:generate
// from pkg/config. Output path defaults to schema.json in the current
// directory, override with the first argument.
func main() {
	schema := jsonschema.Reflect(&config.Config{})

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal config schema: %v", err)
	}

	outputPath := "schema.json"
	if len(os.Args) > 1 {
		outputPath = os.Args[1]
	}

	if err := os.WriteFile(outputPath, data, 0o600); err != nil { //nolint:gosec // schema file is not sensitive
		log.Fatalf("failed to write %s: %v", outputPath, err)
	}

	fmt.Printf("config schema written to %s\n", outputPath)
}
