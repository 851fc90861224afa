package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/psps16/fitness-ai/internal/assistant"
	"github.com/psps16/fitness-ai/internal/auth"
	"github.com/psps16/fitness-ai/internal/config"
	"github.com/psps16/fitness-ai/internal/llm"
	"github.com/psps16/fitness-ai/internal/logging"
	"github.com/psps16/fitness-ai/internal/storage"
)

func main() {
	root := &cobra.Command{
		Use:           "fitai",
		Short:         "FitAI - your personal terminal fitness assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fitai:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	if cfg.APIKey == "" {
		return errors.New("GEMINI_API_KEY is not set; add it to your environment or a .env file")
	}

	logger, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logger.Sync()

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		// No durable state, no session.
		logger.Error("store unavailable", zap.Error(err))
		return err
	}
	defer store.Close()

	verifier := auth.NewVerifier(store)
	client := llm.NewClient(cfg.BaseURL, cfg.Model, cfg.APIKey, cfg.LLMTimeout, cfg.LLMRatePerMin)
	assembler := assistant.NewAssembler(store, store, store, cfg.HistoryWindow)
	synth := assistant.NewSynthesizer(store, client, logger)

	controller := assistant.NewController(assistant.ControllerDeps{
		Verifier:  verifier,
		Profiles:  store,
		Plans:     store,
		History:   store,
		Assembler: assembler,
		Synth:     synth,
		Chat:      client,
		Log:       logger,
	})

	return interact(controller, logger)
}

// interact runs the line loop: render the last output, read the next line,
// hand it to the controller. Controller errors are persistence failures and
// terminate the session.
func interact(controller *assistant.Controller, logger *zap.Logger) error {
	renderer := newRenderer(os.Stdout)
	reader := bufio.NewReader(os.Stdin)
	ctx := context.Background()

	renderer.banner()
	out := controller.Greeting()

	for {
		renderer.render(out)
		if out.Kind == assistant.OutExit {
			return nil
		}

		line, err := readLine(reader, renderer, controller.Mode(), out)
		if err != nil {
			// EOF: treat like an exit request, nothing is left half-written.
			renderer.plain("")
			return nil
		}

		out, err = controller.Handle(ctx, line)
		if err != nil {
			logger.Error("session terminated", zap.Error(err))
			return fmt.Errorf("session terminated: %w", err)
		}
	}
}

func readLine(reader *bufio.Reader, renderer *renderer, mode assistant.Mode, last assistant.Output) (string, error) {
	if last.Kind == assistant.OutPrompt && last.Secret {
		renderer.inputMark("")
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		renderer.plain("")
		return string(secret), err
	}

	switch {
	case last.Kind == assistant.OutPrompt:
		renderer.inputMark("")
	case mode == assistant.ModeChat:
		renderer.inputMark("You: ")
	default:
		renderer.inputMark("> ")
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
