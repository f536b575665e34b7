// Command-line shell for the journaling chat, useful without the HTTP server.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"expander/expander/config"
	"expander/expander/orchestration"
	"expander/expander/services/llm"
	"expander/expander/sources/psql"
	"expander/expander/sources/psql/dao"
	"expander/expander/utils/logging"

	"go.uber.org/zap"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()
	prompts, err := config.LoadPrompts(cfg.PromptsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "prompts:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	convDAO := dao.NewConversationDAO(db.DB, cfg.JourneyEpoch)
	stateDAO := dao.NewDailyStateDAO(db.DB)
	llmService := llm.NewService(cfg)
	defer llmService.Close()

	chat := orchestration.NewChatOrchestrator(convDAO, llmService)
	daily := orchestration.NewDailyOrchestrator(convDAO, stateDAO, llmService, prompts)

	if morning, err := daily.MorningMessage(context.Background()); err == nil && morning != "" {
		fmt.Printf("\n%s\n\n", morning)
	}
	fmt.Println("Type your thoughts, 'summary' to summarize pending days, or 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		if line == "" {
			continue
		}
		if line == "summary" {
			daily.GenerateMissingSummaries(context.Background())
			fmt.Println("pending summaries processed")
			continue
		}

		result, err := chat.SendUserMessage(context.Background(), time.Now().UTC(), line, prompts.Chat)
		if err != nil {
			fmt.Println("error:", userMessage(err))
			continue
		}
		fmt.Printf("\nai> %s\n\n", result.Reply)
		if result.Fallback {
			fmt.Println("(", result.UserError, ")")
		}
	}
}

func userMessage(err error) string {
	return llm.AsError(err).UserMessage()
}
