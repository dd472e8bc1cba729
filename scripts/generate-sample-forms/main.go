package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goliatone/go-corepanel/pkg/devcore"
	"github.com/goliatone/go-corepanel/pkg/schema"
)

// Writes the first form of every devcore sample extension as an indented
// JSON fixture, so `corepanel form render` has real documents to work with.
func main() {
	outputDir := flag.String("output", "examples/fixtures", "directory for the generated fixtures")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir %s: %v\n", *outputDir, err)
		os.Exit(1)
	}

	for _, factory := range devcore.Samples() {
		ext := factory.New()
		doc := ext.Open()
		ext.Close()

		if err := write(filepath.Join(*outputDir, factory.ID+".json"), doc); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", factory.ID, err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s.json\n", factory.ID)
	}
}

func write(path string, doc schema.Document) error {
	payload, err := doc.JSON()
	if err != nil {
		return err
	}
	// Round trip through the decoder so fixtures never drift from what the
	// panel accepts.
	if _, err := schema.DecodeString(payload); err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(payload), "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	return os.WriteFile(path, out.Bytes(), 0o644)
}
