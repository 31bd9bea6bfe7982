package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/folio/internal/contact"
)

var (
	contactName    string
	contactEmail   string
	contactMessage string
)

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Send a test contact form submission to the webhook",
	RunE: func(cmd *cobra.Command, args []string) error {
		return contactRun(cmd)
	},
}

func init() {
	contactCmd.Flags().StringVar(&contactName, "name", "", "Sender name")
	contactCmd.Flags().StringVar(&contactEmail, "email", "", "Sender email")
	contactCmd.Flags().StringVarP(&contactMessage, "message", "m", "", "Message body")
	rootCmd.AddCommand(contactCmd)
}

func contactRun(cmd *cobra.Command) error {
	n := contact.NewNotifier(viper.GetString("contact.webhook_url"))
	if !n.Configured() {
		return fmt.Errorf("%w: set contact.webhook_url", contact.ErrNotConfigured)
	}
	msg := contact.Message{Name: contactName, Email: contactEmail, Message: contactMessage}
	if dryRun {
		ui.DryRunMsg("Would post contact message from %q", msg.Name)
		return nil
	}
	if err := n.Send(cmdContext(cmd), msg); err != nil {
		return err
	}
	ui.Success("Contact message sent")
	return nil
}
