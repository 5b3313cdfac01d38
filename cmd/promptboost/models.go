package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AstroAir/PromptBoost-sub001/pkg/cli"
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

var modelsFlags struct {
	provider string
	format   string
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available models",
	Long: `List the models the configured providers serve.

Providers with a live catalog endpoint are queried; the rest report
their curated catalog. Without --provider, every configured provider
is listed.

Examples:
  # Models of every configured provider
  promptboost models

  # Models of one provider, as JSON
  promptboost models --provider openai --format json`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.Flags().StringVarP(&modelsFlags.provider, "provider", "p", "", "list only this provider's models")
	modelsCmd.Flags().StringVar(&modelsFlags.format, "format", "text", "output format: text, json")
}

// providerModels is one provider's catalog in the models listing.
type providerModels struct {
	Provider string                `json:"provider"`
	Kind     string                `json:"kind"`
	Models   []providers.ModelInfo `json:"models"`
}

func runModels(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	names := a.providerNames()
	if modelsFlags.provider != "" {
		names = []string{modelsFlags.provider}
	}

	listings := make([]providerModels, 0, len(names))
	for _, name := range names {
		h, err := a.resolve(name)
		if err != nil {
			return cli.NewCommandError("models", err)
		}
		listings = append(listings, providerModels{
			Provider: name,
			Kind:     h.Name(),
			Models:   h.Models(cmd.Context()),
		})
		h.Close()
	}

	if modelsFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, listings)
	}

	for _, listing := range listings {
		if listing.Provider == listing.Kind {
			fmt.Printf("%s:\n", listing.Provider)
		} else {
			fmt.Printf("%s (%s):\n", listing.Provider, listing.Kind)
		}
		if len(listing.Models) == 0 {
			fmt.Println("  (no catalog; any model id the endpoint accepts)")
			continue
		}
		for _, m := range listing.Models {
			line := "  " + m.ID
			if m.Name != "" {
				line += "  " + m.Name
			}
			if m.ContextWindow > 0 {
				line += fmt.Sprintf("  [%d tokens]", m.ContextWindow)
			}
			fmt.Println(line)
		}
	}
	return nil
}
