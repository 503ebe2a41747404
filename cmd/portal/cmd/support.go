package cmd

import (
	"fmt"
	"strings"

	"forex-portal-go/internal/common"
	"forex-portal-go/internal/models"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ticketOpts struct {
	subject  string
	category string
	message  string
}

var supportCmd = &cobra.Command{
	Use:   "support",
	Short: "Open and follow support tickets",
	Long: `Open support tickets, reply to them and follow replies as they arrive.

Subcommands:
  list   - List your tickets
  open   - Open a new ticket
  show   - Show a ticket with its conversation
  reply  - Reply to a ticket
  watch  - Print new replies on a ticket until interrupted

Examples:
  portal support open --subject "Deposit not credited" --category deposits --message "..."
  portal support reply 42 "The transfer slip is attached."
  portal support watch 42`,
}

var supportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your tickets",
	Args:  cobra.NoArgs,
	RunE:  runSupportList,
}

var supportOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Open a new ticket",
	Args:  cobra.NoArgs,
	RunE:  runSupportOpen,
}

var supportShowCmd = &cobra.Command{
	Use:   "show <ticket-id>",
	Short: "Show a ticket with its conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runSupportShow,
}

var supportReplyCmd = &cobra.Command{
	Use:   "reply <ticket-id> <message>",
	Short: "Reply to a ticket",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSupportReply,
}

var supportWatchCmd = &cobra.Command{
	Use:   "watch <ticket-id>",
	Short: "Print new replies on a ticket until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE:  runSupportWatch,
}

func init() {
	rootCmd.AddCommand(supportCmd)
	supportCmd.AddCommand(supportListCmd)
	supportCmd.AddCommand(supportOpenCmd)
	supportCmd.AddCommand(supportShowCmd)
	supportCmd.AddCommand(supportReplyCmd)
	supportCmd.AddCommand(supportWatchCmd)

	f := supportOpenCmd.Flags()
	f.StringVar(&ticketOpts.subject, "subject", "", "ticket subject")
	f.StringVar(&ticketOpts.category, "category", "general", "ticket category")
	f.StringVar(&ticketOpts.message, "message", "", "first message")
}

func runSupportList(cmd *cobra.Command, args []string) error {
	ctx, err := sessionContext(cmd)
	if err != nil {
		return err
	}
	tickets, err := services.Support.List(ctx)
	if err != nil {
		return err
	}

	common.PrintHeader("SUPPORT TICKETS", common.DefaultWidth)
	if len(tickets) == 0 {
		fmt.Println("No tickets yet. Open one with `portal support open`.")
		return nil
	}
	for i, t := range tickets {
		isLast := i == len(tickets)-1
		fmt.Printf("%s#%s %s  ", common.BoxPrefix(isLast), t.Id, t.Subject)
		common.StatusColor(t.Status).Println(t.Status)
		fmt.Printf("%s  %s · updated %s\n", common.BoxDetailPrefix(isLast), t.Category,
			t.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runSupportOpen(cmd *cobra.Command, args []string) error {
	ctx, err := sessionContext(cmd)
	if err != nil {
		return err
	}

	if (ticketOpts.subject == "" || ticketOpts.message == "") && isInteractive() {
		printStep("SUPPORT", "NEW TICKET")
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Subject").
					Value(&ticketOpts.subject),
				huh.NewSelect[string]().
					Title("Category").
					Options(
						huh.NewOption("General", "general"),
						huh.NewOption("Deposits", "deposits"),
						huh.NewOption("Withdrawals", "withdrawals"),
						huh.NewOption("Trading accounts", "accounts"),
						huh.NewOption("Verification", "kyc"),
					).
					Value(&ticketOpts.category),
				huh.NewText().
					Title("Message").
					Value(&ticketOpts.message),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	ticket, err := services.Support.Open(ctx, ticketOpts.subject, ticketOpts.category, ticketOpts.message)
	if err != nil {
		return err
	}
	common.PrintSuccess("Ticket #%s opened", ticket.Id)
	return nil
}

func runSupportShow(cmd *cobra.Command, args []string) error {
	ctx, err := sessionContext(cmd)
	if err != nil {
		return err
	}
	ticket, err := services.Support.Get(ctx, args[0])
	if err != nil {
		return err
	}

	common.PrintHeader(fmt.Sprintf("#%s %s", ticket.Id, ticket.Subject), common.DefaultWidth)
	fmt.Print("Status: ")
	common.StatusColor(ticket.Status).Println(ticket.Status)
	for _, m := range ticket.Messages {
		printTicketMessage(m)
	}
	return nil
}

func runSupportReply(cmd *cobra.Command, args []string) error {
	ctx, err := sessionContext(cmd)
	if err != nil {
		return err
	}
	if _, err := services.Support.Reply(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
		return err
	}
	common.PrintSuccess("Reply sent")
	return nil
}

func runSupportWatch(cmd *cobra.Command, args []string) error {
	ctx, err := sessionContext(cmd)
	if err != nil {
		return err
	}

	fmt.Println(hintStyle.Render(fmt.Sprintf("Watching ticket #%s, press Ctrl+C to stop", args[0])))
	watch, err := services.Support.Watch(ctx, args[0], printTicketMessage, func(err error) {
		zap.L().Warn("Ticket poll failed", zap.String("ticket_id", args[0]), zap.Error(err))
	})
	if err != nil {
		return err
	}
	defer watch.Stop()

	select {
	case <-ctx.Done():
	case <-watch.Done():
	}
	return nil
}

func printTicketMessage(m models.TicketMessage) {
	who := "You"
	if m.Sender != "user" {
		who = "Support"
	}
	fmt.Printf("\n%s · %s\n", titleStyle(who), m.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Println(m.Body)
}

func titleStyle(s string) string {
	return stepStyle.UnsetMarginTop().Render(s)
}
