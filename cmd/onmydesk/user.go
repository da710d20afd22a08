package main

import (
	"fmt"

	"onmydesk/auth"
	"onmydesk/config"
	"onmydesk/utils"

	"github.com/spf13/cobra"
)

var userAdmin bool

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage API users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a user (password asked interactively)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		users, err := auth.LoadUsers(cfg.Server.UserFile)
		if err != nil {
			return err
		}
		if _, exists := users.Users[args[0]]; exists {
			return fmt.Errorf("%w: %s", auth.ErrUserExists, args[0])
		}
		pass, err := utils.PromptPasswordTwice(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err := users.Add(cfg.Server, args[0], pass, userAdmin); err != nil {
			return err
		}
		if err := auth.SaveUsers(cfg.Server.UserFile, users); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "User added.")
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		users, err := auth.LoadUsers(cfg.Server.UserFile)
		if err != nil {
			return err
		}
		for _, name := range users.Names() {
			role := "user"
			if users.Users[name].Admin {
				role = "admin"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "- %s [%s]\n", name, role)
		}
		return nil
	},
}

func init() {
	userAddCmd.Flags().BoolVar(&userAdmin, "admin", false, "grant admin rights")
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
}
