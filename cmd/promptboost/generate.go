package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AstroAir/PromptBoost-sub001/pkg/cli"
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
	"github.com/AstroAir/PromptBoost-sub001/pkg/registry"
)

var generateFlags struct {
	provider    string
	model       string
	maxTokens   int
	temperature float64
	stream      bool
	format      string
}

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate text from a prompt",
	Long: `Send one prompt through the gateway and print the completion.

The prompt comes from the argument, or from stdin when no argument is
given. The call runs with retries, rate limiting, and usage accounting
per the configuration. Interrupting a streaming call with Ctrl+C stops
it cleanly and still records the partial usage.

Examples:
  # One-shot generation with the single configured provider
  promptboost generate "Explain vector clocks in one paragraph"

  # Pick a provider and model
  promptboost generate --provider anthropic --model claude-3-haiku-20240307 "Write a haiku"

  # Stream deltas to stdout as they arrive
  promptboost generate --stream "Tell me a story"

  # Pipe the prompt in, get the full result as JSON
  cat prompt.txt | promptboost generate --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateFlags.provider, "provider", "p", "", "provider to use (default: the single configured one)")
	generateCmd.Flags().StringVarP(&generateFlags.model, "model", "m", "", "model override")
	generateCmd.Flags().IntVar(&generateFlags.maxTokens, "max-tokens", 0, "completion length cap")
	generateCmd.Flags().Float64Var(&generateFlags.temperature, "temperature", 0, "sampling temperature")
	generateCmd.Flags().BoolVarP(&generateFlags.stream, "stream", "s", false, "stream deltas as they arrive")
	generateCmd.Flags().StringVar(&generateFlags.format, "format", "text", "output format: text, json")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if generateFlags.stream && generateFlags.format == "json" {
		return fmt.Errorf("--format json cannot be combined with --stream")
	}

	prompt, err := readPrompt(args)
	if err != nil {
		return err
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	name, err := a.pickProvider(generateFlags.provider)
	if err != nil {
		return err
	}
	h, err := a.resolve(name)
	if err != nil {
		return err
	}
	defer h.Close()

	opts := providers.Options{
		Model:       generateFlags.model,
		MaxTokens:   generateFlags.maxTokens,
		Temperature: generateFlags.temperature,
		Stream:      generateFlags.stream,
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	if generateFlags.stream {
		return streamCompletion(ctx, h, prompt, opts)
	}

	res, err := h.Generate(ctx, prompt, opts)
	if err != nil {
		return cli.NewCommandError("generate", err)
	}

	if generateFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, res)
	}
	fmt.Println(res.Text)
	return nil
}

// streamCompletion prints deltas to stdout as they arrive. The trailing
// newline lands after the stream ends so deltas concatenate verbatim.
func streamCompletion(ctx context.Context, h *registry.Handle, prompt string, opts providers.Options) error {
	st, err := h.Stream(ctx, prompt, opts)
	if err != nil {
		return cli.NewCommandError("generate", err)
	}
	defer st.Close()

	for {
		delta, err := st.Recv()
		if delta != "" {
			fmt.Print(delta)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Println()
			return cli.NewCommandError("generate", err)
		}
	}
	fmt.Println()

	if verbose {
		if u, reported := st.Usage(); reported {
			fmt.Fprintf(os.Stderr, "tokens: %d prompt + %d completion = %d total\n",
				u.PromptTokens, u.CompletionTokens, u.TotalTokens)
		}
	}
	return nil
}

// readPrompt takes the prompt from the argument or, when absent, from
// stdin so prompts can be piped in.
func readPrompt(args []string) (string, error) {
	if len(args) == 1 {
		if strings.TrimSpace(args[0]) == "" {
			return "", fmt.Errorf("prompt is empty")
		}
		return args[0], nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt from stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("prompt is empty (pass it as an argument or on stdin)")
	}
	return prompt, nil
}
