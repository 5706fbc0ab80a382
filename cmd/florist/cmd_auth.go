package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
)

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the marketplace",
		Long: `Signs in and stores the session in the data directory.

The password is read from the first line of stdin when --password is not
given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			sess, err := c.sessions.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			c.printf("Signed in as %s\n", userLine(sess.User))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, sess, err := c.principal(cmd.Context())
			if err != nil {
				return err
			}
			if sess == nil {
				c.printf("Not signed in.\n")
				return nil
			}
			if err := c.sessions.Logout(cmd.Context(), sess); err != nil {
				return err
			}
			c.printf("Signed out.\n")
			return nil
		},
	}
}

func (c *cli) meCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, sess, err := c.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			user, err := c.sessions.Me(cmd.Context(), sess)
			if err != nil {
				return err
			}
			c.printUser(user)
			return nil
		},
	}

	var name, phone, company string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change the account name, phone or company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, sess, err := c.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			var upd domain.ProfileUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				upd.Name = &name
			}
			if flags.Changed("phone") {
				upd.Phone = &phone
			}
			if flags.Changed("company") {
				upd.Company = &company
			}
			if upd == (domain.ProfileUpdate{}) {
				return fmt.Errorf("nothing to update: pass --name, --phone or --company")
			}

			user, err := c.sessions.UpdateProfile(cmd.Context(), sess, upd)
			if err != nil {
				return err
			}
			c.printUser(user)
			return nil
		},
	}
	update.Flags().StringVar(&name, "name", "", "display name")
	update.Flags().StringVar(&phone, "phone", "", "phone number")
	update.Flags().StringVar(&company, "company", "", "company name")
	cmd.AddCommand(update)
	return cmd
}

func userLine(u *domain.User) string {
	if u == nil {
		return "unknown user"
	}
	return fmt.Sprintf("%s <%s> (%s)", u.Name, u.Email, u.Role)
}

func (c *cli) printUser(u *domain.User) {
	c.printf("%s\n", userLine(u))
	if u.SupplierID != nil {
		c.printf("Supplier: %s\n", *u.SupplierID)
	}
	if u.Company != nil {
		c.printf("Company:  %s\n", *u.Company)
	}
	if u.Phone != nil {
		c.printf("Phone:    %s\n", *u.Phone)
	}
}
