package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"photodeck/internal/model"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Talk to the photo assistant",
	Long:  "Send one message to the photo assistant, or start an interactive conversation when no message is given. Type /quit to leave the conversation.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.requireSession(); err != nil {
			return err
		}
		if open := a.view.ToggleChat(); !open {
			return fmt.Errorf("chat is only available on the dashboard")
		}

		printLastBot(a)

		if len(args) > 0 {
			return sendAndPrint(a, cmd, strings.Join(args, " "))
		}

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "/quit" {
				break
			}
			if err := sendAndPrint(a, cmd, line); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		}
		return scanner.Err()
	},
}

func sendAndPrint(a *app, cmd *cobra.Command, text string) error {
	if err := a.chat.Send(cmd.Context(), text); err != nil {
		return err
	}
	printLastBot(a)
	return nil
}

// printLastBot prints the trailing bot entry of the transcript, if the last
// exchange produced one.
func printLastBot(a *app) {
	messages := a.chat.Messages()
	if len(messages) == 0 {
		return
	}
	last := messages[len(messages)-1]
	if last.Role == model.RoleBot {
		fmt.Printf("assistant: %s\n", last.Content)
	}
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe backend liveness",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		hs, err := a.client.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("backend health probe failed: %w", err)
		}
		if formatFlag == "json" {
			return printJSON(hs)
		}
		fmt.Printf("%s (%s %s)\n", hs.Status, hs.App, hs.Version)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(chatCmd, healthCmd)
}
