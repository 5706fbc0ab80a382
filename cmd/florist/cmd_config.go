package main

import (
	"github.com/spf13/cobra"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/config"
)

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the client profile",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective profile, flags applied",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				data, err := c.profile.Marshal()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print where the profile is read from",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path := c.profilePath
				if path == "" {
					path = config.DefaultProfilePath()
				}
				c.printf("%s\n", path)
				return nil
			},
		},
	)
	return cmd
}
