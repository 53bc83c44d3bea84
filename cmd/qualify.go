package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-qualifier/internal/model"
)

var qualifyFlags struct {
	email     string
	company   string
	firstName string
	lastName  string
	message   string
	source    string
}

var qualifyCmd = &cobra.Command{
	Use:   "qualify",
	Short: "Qualify a single lead and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initQualifier(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		lead := model.Lead{
			Email:     qualifyFlags.email,
			Company:   qualifyFlags.company,
			FirstName: qualifyFlags.firstName,
			LastName:  qualifyFlags.lastName,
			Message:   qualifyFlags.message,
			Source:    model.LeadSource(qualifyFlags.source),
		}

		result, err := env.Qualifier.Qualify(ctx, lead)
		if err != nil {
			return eris.Wrap(err, "qualify lead")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	qualifyCmd.Flags().StringVar(&qualifyFlags.email, "email", "", "lead email (required)")
	qualifyCmd.Flags().StringVar(&qualifyFlags.company, "company", "", "company name")
	qualifyCmd.Flags().StringVar(&qualifyFlags.firstName, "first-name", "", "first name")
	qualifyCmd.Flags().StringVar(&qualifyFlags.lastName, "last-name", "", "last name")
	qualifyCmd.Flags().StringVar(&qualifyFlags.message, "message", "", "inbound message text")
	qualifyCmd.Flags().StringVar(&qualifyFlags.source, "source", "", "lead source")
	_ = qualifyCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(qualifyCmd)
}
