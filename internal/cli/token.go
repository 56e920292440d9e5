package cli

import (
	"fmt"

	"campus-exam-service/internal/config"
	"campus-exam-service/internal/domain"
	transport "campus-exam-service/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewTokenCmd issues an identity token signed with the configured secret.
// It stands in for the portal's identity provider in development.
func NewTokenCmd(configPath *string) *cobra.Command {
	var subject, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed identity token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			parsed, err := domain.ParseRole(role)
			if err != nil {
				return fmt.Errorf("%w: %q", err, role)
			}
			tokens, err := transport.NewTokens(cfg.Auth.Secret, cfg.Auth.Issuer, config.TTLDuration(cfg.Auth.TokenTTL, 0))
			if err != nil {
				return err
			}
			raw, err := tokens.Issue(domain.Actor{ID: subject, Role: parsed})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "user id to embed in the token")
	cmd.Flags().StringVar(&role, "role", "STUDENT", "role: HOD, FACULTY or STUDENT")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
