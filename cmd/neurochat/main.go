// Command neurochat is an interactive terminal chat session.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/neurochat/neurochat/app"
	"github.com/neurochat/neurochat/config"
	"github.com/neurochat/neurochat/memory"
)

func main() {
	userID := flag.String("user", "user_001", "user id for this session")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	_ = godotenv.Load()

	log := zap.NewNop()
	if *verbose {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	application, err := app.Build(ctx, cfg, log, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	session := &cliSession{
		app:    application,
		userID: *userID,
		in:     bufio.NewScanner(os.Stdin),
	}
	session.run(ctx)
}

type cliSession struct {
	app    *app.App
	userID string
	in     *bufio.Scanner
}

func (s *cliSession) run(ctx context.Context) {
	name := s.app.Bot.Character().Name()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("  %s\n", name)
	fmt.Println(strings.Repeat("=", 60))
	s.printHelp()

	for {
		fmt.Print("\nYou: ")
		if !s.in.Scan() {
			fmt.Println("\nGoodbye!")
			return
		}
		input := strings.TrimSpace(s.in.Text())
		if input == "" {
			continue
		}
		handled, quit := s.handleCommand(ctx, input)
		if quit {
			return
		}
		if handled {
			continue
		}

		reply, err := s.app.Bot.Chat(ctx, s.userID, input)
		if err != nil {
			fmt.Printf("\nerror: %v\n", err)
			continue
		}
		fmt.Printf("\n%s: %s\n", name, reply)
	}
}

// handleCommand interprets input as a session command. It reports
// whether the input was consumed and whether the session should end.
func (s *cliSession) handleCommand(ctx context.Context, input string) (handled, quit bool) {
	switch strings.ToLower(input) {
	case "exit", "quit", "bye":
		fmt.Println("\nSee you next time!")
		return true, true
	case "help", "h", "?":
		s.printHelp()
		return true, false
	case "clear", "reset":
		s.app.Bot.ClearShortTerm(s.userID)
		fmt.Println("Conversation window cleared. Long-term memories are kept.")
		return true, false
	case "stats", "info", "status":
		s.showStats(ctx)
		return true, false
	case "history", "recent":
		s.showHistory(ctx)
		return true, false
	case "delete", "purge":
		s.deleteUserData(ctx)
		return true, false
	}
	return false, false
}

func (s *cliSession) printHelp() {
	fmt.Println("\nCommands:")
	fmt.Println("  exit, quit, bye  - end the chat")
	fmt.Println("  clear, reset     - clear the conversation window")
	fmt.Println("  stats, info      - show memory statistics")
	fmt.Println("  history, recent  - show recent memories")
	fmt.Println("  help, h, ?       - show this help")
	fmt.Println("  delete, purge    - delete all stored data")
}

func (s *cliSession) showStats(ctx context.Context) {
	stats, err := s.app.Bot.Stats(ctx, s.userID)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	global, err := s.app.Bot.Statistics(ctx)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println("\nYour memory:")
	fmt.Printf("  user id:            %s\n", stats.UserID)
	fmt.Printf("  long-term memories: %d\n", stats.LongTermCount)
	fmt.Printf("  short-term window:  %d\n", stats.ShortTermCount)
	fmt.Println("System-wide:")
	fmt.Printf("  total memories: %d\n", global.Total)
	fmt.Printf("  unique users:   %d\n", global.UniqueUsers)
}

func (s *cliSession) showHistory(ctx context.Context) {
	memories, err := s.app.Bot.Recent(ctx, s.userID, 10)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if len(memories) == 0 {
		fmt.Println("\nNo conversation history yet.")
		return
	}
	name := s.app.Bot.Character().Name()
	fmt.Println("\nRecent memories:")
	// Recent returns newest first; show oldest first for reading order.
	for i := len(memories) - 1; i >= 0; i-- {
		m := memories[i]
		who := "You"
		if m.Role == memory.RoleAssistant {
			who = name
		}
		fmt.Printf("\n[%s] %s:\n", m.Timestamp.Local().Format("01/02 15:04"), who)
		fmt.Printf("  %s\n", m.Content)
	}
}

func (s *cliSession) deleteUserData(ctx context.Context) {
	fmt.Println("\nWarning: this deletes all of your conversation data.")
	fmt.Print("Are you sure? (yes/no): ")
	if !s.in.Scan() {
		return
	}
	switch strings.ToLower(strings.TrimSpace(s.in.Text())) {
	case "yes", "y":
		result, err := s.app.Bot.DeleteAll(ctx, s.userID)
		if err != nil {
			fmt.Printf("delete failed: %v\n", err)
		}
		fmt.Printf("Deleted %d long-term memories.\n", result.LongTermDeleted)
	default:
		fmt.Println("Cancelled.")
	}
}
