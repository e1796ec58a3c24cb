package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	listLimit  int
	reveal     bool
	checkImage string
)

func init() {
	submissionsListCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "Maximum number of submissions to print.")
	submissionsShowCmd.Flags().BoolVar(&reveal, "reveal", false, "Decrypt and print the full account number.")
	submissionsShowCmd.Flags().StringVar(&checkImage, "check-image", "", "Write the uploaded check image to this path.")

	submissionsCmd.AddCommand(submissionsListCmd)
	submissionsCmd.AddCommand(submissionsShowCmd)
	rootCmd.AddCommand(submissionsCmd)
}

var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "Inspects the payment details submitted by sellers.",
}

var submissionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Prints the most recent submissions.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, database, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer database.Close()

		submissions, err := store.List(cmd.Context(), listLimit)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Code", "Submitted", "Auction", "Seller", "Name", "Amount due", "Method", "Account"})
		for _, s := range submissions {
			account := ""
			if s.AccountLast4 != "" {
				account = "..." + s.AccountLast4
			}
			t.AppendRow(table.Row{
				s.ConfirmationCode,
				s.CreatedAt.Format(time.DateTime),
				s.AuctionCode,
				s.SellerId,
				s.SellerName,
				"$" + s.AmountDue,
				s.Method,
				account,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

var submissionsShowCmd = &cobra.Command{
	Use:   "show <confirmation code>",
	Short: "Prints a single submission.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, database, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer database.Close()

		row, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		account := ""
		if row.AccountLast4 != "" {
			account = "..." + row.AccountLast4
		}
		if reveal {
			account, err = store.AccountNumber(row)
			if err != nil {
				return fmt.Errorf("decrypt account number: %w", err)
			}
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendRows([]table.Row{
			{"Confirmation code", row.ConfirmationCode},
			{"Submitted", time.Unix(row.CreatedAt, 0).Format(time.DateTime)},
			{"Auction", fmt.Sprintf("%s (%s)", row.AuctionTitle, row.AuctionCode)},
			{"Seller", fmt.Sprintf("%s (#%s)", row.SellerName, row.SellerID)},
			{"Email", row.SellerEmail},
			{"Statement date", row.StatementDate},
			{"Amount due", "$" + row.AmountDue},
			{"Method", string(row.Method)},
			{"Name on account", row.EntityName},
			{"Routing number", row.RoutingNumber},
			{"Account number", account},
			{"Account type", row.AccountType},
			{"Check image", row.CheckImageType},
		})
		t.SetStyle(table.StyleRounded)
		t.Render()

		if checkImage != "" {
			if len(row.CheckImage) == 0 {
				return fmt.Errorf("submission %s has no check image", row.ConfirmationCode)
			}
			err = os.WriteFile(checkImage, row.CheckImage, 0600)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "check image written to %s\n", checkImage)
		}
		return nil
	},
}
