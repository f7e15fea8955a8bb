package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/annelo/climber-server/internal/protocol"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema (stdout if empty)")
	flag.Parse()

	data, err := json.MarshalIndent(buildSchema(), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal schema: %v\n", err)
		os.Exit(1)
	}
	data = append(data, '\n')

	if outPath == "" {
		os.Stdout.Write(data)
		return
	}
	if err := writeSchema(outPath, data); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

// buildSchema описывает все сообщения сервера и токены клиента.
func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}

	server := []*jsonschema.Schema{
		titled(reflector.Reflect(protocol.MapMessage{}), protocol.TypeMap),
		titled(reflector.Reflect(protocol.PlayerUpdate{}), protocol.TypePlayerUpdate),
		titled(reflector.Reflect(protocol.GameOver{}), protocol.TypeGameOver),
		titled(reflector.Reflect(protocol.ErrorMessage{}), protocol.TypeError),
	}

	enum := make([]interface{}, 0)
	for _, t := range protocol.Tokens() {
		enum = append(enum, t)
	}
	client := &jsonschema.Schema{
		Type:        "string",
		Title:       "Client command",
		Description: "One token per line, case-insensitive.",
		Enum:        enum,
	}

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "Climber line protocol",
		Description: "Newline-delimited JSON sent by the server; plain tokens sent by the client.",
		OneOf:       append(server, client),
	}
}

func titled(s *jsonschema.Schema, title string) *jsonschema.Schema {
	s.Version = ""
	s.Title = title
	return s
}

func writeSchema(outPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}
	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
