package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ejcarter/paperboy/internal/db"
	"github.com/ejcarter/paperboy/internal/issues"
)

var (
	publishTitle    string
	publishHTMLFile string
	publishTextFile string
)

// publishCmd represents the publish command
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a newsletter issue to all confirmed subscribers",
	Long: `Publish stores a new newsletter issue and enqueues one delivery task per
confirmed subscriber. The running worker picks the tasks up from there.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		htmlBody, err := os.ReadFile(publishHTMLFile)
		if err != nil {
			return fmt.Errorf("read html file: %w", err)
		}
		textBody, err := os.ReadFile(publishTextFile)
		if err != nil {
			return fmt.Errorf("read text file: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		pool, err := db.Connect(ctx, resolveDSN())
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()

		id, enqueued, err := issues.NewPublisher(pool).Publish(ctx, issues.NewIssue{
			Title:       publishTitle,
			HTMLContent: string(htmlBody),
			TextContent: string(textBody),
		})
		if err != nil {
			return fmt.Errorf("publish issue: %w", err)
		}

		if outputJSON {
			printOutput(map[string]any{
				"issue_id":       id.String(),
				"tasks_enqueued": enqueued,
			})
		} else {
			fmt.Printf("✓ Issue published: %s\n", id)
			fmt.Printf("Delivery tasks enqueued: %d\n", enqueued)
		}
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishTitle, "title", "", "issue title (used as the email subject)")
	publishCmd.Flags().StringVar(&publishHTMLFile, "html-file", "", "path to the HTML body")
	publishCmd.Flags().StringVar(&publishTextFile, "text-file", "", "path to the plain text body")
	publishCmd.MarkFlagRequired("title")
	publishCmd.MarkFlagRequired("html-file")
	publishCmd.MarkFlagRequired("text-file")

	rootCmd.AddCommand(publishCmd)
}
