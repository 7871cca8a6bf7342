package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/project-relgate/relgate/internal/attr"
	"github.com/project-relgate/relgate/internal/config"
	"github.com/project-relgate/relgate/internal/metadata"
	"github.com/project-relgate/relgate/internal/request"
)

// filterInput is the one-shot filtering request read from stdin or a file
type filterInput struct {
	RelyingParty string              `json:"relying_party"`
	Attributes   map[string][]string `json:"attributes"`
	Destination  string              `json:"destination,omitempty"`
	Source       string              `json:"source,omitempty"`
}

// NewFilterCmd creates the filter command
func NewFilterCmd() *cobra.Command {
	var inputPath string
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Run one filtering pass and print the result",
		Long: `Run a single attribute filtering pass against the configured policy
and print the surviving attributes.

The input is a JSON document with the relying party, the attribute bag, and
optional destination/source entity IDs:

  {
    "relying_party": "https://sp.example.org",
    "attributes": {"mail": ["user@example.org"], "cn": ["User"]},
    "destination": "https://sp.example.org"
  }

Examples:
  # Filter a request from stdin
  relgate filter --config config.yaml < request.json

  # Filter a request from a file, printing YAML
  relgate filter --config config.yaml --input request.json --output yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd.Context(), inputPath, outputFormat)
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Read the filter request from this file instead of stdin")
	cmd.Flags().StringVar(&outputFormat, "output", "json", "Output format (json, yaml)")

	return cmd
}

func runFilter(ctx context.Context, inputPath, outputFormat string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	configPath := configFile
	if configPath == "" {
		configPath = os.Getenv("RELGATE_CONFIG")
	}

	loader, err := config.NewLoader(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := loader.Get()
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	provider := config.NewProvider(cfg)

	engine, err := provider.Engine()
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	store, err := provider.MetadataStore()
	if err != nil {
		return fmt.Errorf("failed to create metadata store: %w", err)
	}

	input, err := readFilterInput(inputPath)
	if err != nil {
		return err
	}

	destination, err := lookupEntity(ctx, store, input.Destination)
	if err != nil {
		return err
	}
	source, err := lookupEntity(ctx, store, input.Source)
	if err != nil {
		return err
	}

	bag := attr.Bag(input.Attributes)
	if bag == nil {
		bag = attr.Bag{}
	}
	rc := request.New(input.RelyingParty, destination, source)

	if err := engine.Process(ctx, bag, rc); err != nil {
		return fmt.Errorf("filtering failed: %w", err)
	}

	return writeResult(os.Stdout, bag, outputFormat)
}

// readFilterInput reads the request from a file or stdin
func readFilterInput(path string) (*filterInput, error) {
	var reader io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer func() { _ = f.Close() }()
		reader = f
	}

	var input filterInput
	if err := json.NewDecoder(reader).Decode(&input); err != nil {
		return nil, fmt.Errorf("failed to parse filter request: %w", err)
	}
	if input.RelyingParty == "" {
		return nil, fmt.Errorf("filter request requires relying_party")
	}
	return &input, nil
}

// lookupEntity resolves an optional entity ID; unknown entities are skipped
func lookupEntity(ctx context.Context, store metadata.Store, entityID string) (*metadata.Entity, error) {
	if entityID == "" {
		return nil, nil
	}
	entity, err := store.Lookup(ctx, entityID)
	if err != nil {
		if err == metadata.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("metadata lookup for %s failed: %w", entityID, err)
	}
	return entity, nil
}

// writeResult prints the surviving attributes in the requested format
func writeResult(w io.Writer, bag attr.Bag, format string) error {
	switch format {
	case "yaml":
		data, err := yaml.Marshal(map[string]any{"attributes": bag})
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "json", "":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{"attributes": bag})
	default:
		return fmt.Errorf("unknown output format: %s (supported: json, yaml)", format)
	}
}
