package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pathwise/pathwise/internal/app"
	"github.com/pathwise/pathwise/internal/config"
	"github.com/pathwise/pathwise/internal/log"
	"github.com/pathwise/pathwise/internal/orchestrator"
	"github.com/pathwise/pathwise/internal/router"
	"github.com/pathwise/pathwise/internal/state"
)

var (
	chatLessonID string
	chatLevel    int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive tutoring session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatLessonID, "lesson", "", "lesson ID to scope retrieval to")
	chatCmd.Flags().IntVar(&chatLevel, "level", 1, "learner level")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := cmd.Context()
	logger := log.New(log.Config{})

	a, err := app.Setup(ctx, cfg, logger, app.Options{
		SkipDatabase: chatLessonID == "",
	})
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(context.Background()); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	profile := state.UserProfile{ID: "local", Level: chatLevel}

	fmt.Println("pathwise - type your question, or \"goodbye\" to quit")

	var history []state.Message
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		result, err := a.Service.Chat(ctx, line, orchestrator.ChatOptions{
			LessonID:         chatLessonID,
			UserProfile:      profile,
			PreviousMessages: history,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		fmt.Printf("[%s] %s\n", result.AgentType, result.Response)

		history = append(history,
			state.Message{Role: state.RoleUser, Content: line},
			state.Message{Role: state.RoleAssistant, Content: result.Response},
		)

		turn := state.ConversationState{Messages: history, ShouldContinue: true}
		if router.ShouldContinue(turn) == router.End {
			fmt.Println("goodbye!")
			break
		}
	}
	return scanner.Err()
}
