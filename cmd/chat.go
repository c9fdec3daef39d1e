package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/liteplex/liteplex/internal/agent"
	"github.com/liteplex/liteplex/internal/logger"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with liteplex in the terminal",
	Run:   runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	assistant := agent.New(cfg, logger.L())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("liteplex (%s / %s) - type a question, /clear to reset memory, /quit to exit\n",
		cfg.LLM.Provider, cfg.Search.PrimaryEngine)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			continue
		case "/quit", "/exit":
			return
		case "/clear":
			assistant.ClearHistory()
			fmt.Println("memory cleared")
			continue
		}

		streamAnswer(assistant, question, sigCh)
	}
}

// streamAnswer runs one question, printing tokens as they arrive. An
// interrupt cancels the in-flight answer without exiting the loop.
func streamAnswer(assistant *agent.Assistant, question string, sigCh <-chan os.Signal) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := assistant.StreamChat(ctx, question, agent.StreamOptions{})
	for {
		select {
		case <-sigCh:
			cancel()
			fmt.Println("\n(cancelled)")
			for range events {
			}
			return

		case ev, ok := <-events:
			if !ok {
				fmt.Println()
				return
			}
			switch ev.Type {
			case agent.EventStatus:
				fmt.Printf("[%s]\n", ev.Status)
			case agent.EventContent:
				fmt.Print(ev.Content)
			case agent.EventSources:
				if len(ev.Sources) > 0 {
					fmt.Printf("\n\nSources:\n")
					for _, src := range ev.Sources {
						fmt.Printf("  [%d] %s - %s\n", src.Index, src.Title, src.URL)
					}
				}
			case agent.EventError:
				fmt.Printf("\nerror: %s\n", ev.Message)
			}
		}
	}
}
