package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/canteen/internal/client"
	"github.com/shashiranjanraj/canteen/pkg/account"
	"github.com/shashiranjanraj/canteen/pkg/session"
)

var (
	usernameFlag string
	passwordFlag string
	nicknameFlag string
	phoneFlag    string
	avatarFlag   string
)

// canteen register
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
		u, err := c.Account.Register(ctx, account.Registration{
			Username: usernameFlag,
			Password: passwordFlag,
			Nickname: nicknameFlag,
			Phone:    phoneFlag,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s.\n", u.DisplayName())
		return nil
	}),
}

// canteen login
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with username and password",
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
		u, err := c.Account.Login(ctx, account.Credentials{Username: usernameFlag, Password: passwordFlag})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s).\n", u.DisplayName(), u.Role)
		return nil
	}),
}

// canteen logout
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the session and empty the cart",
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
		return c.Account.Logout(ctx)
	}),
}

// canteen whoami prints the cached profile without calling the backend.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: withClient(func(_ context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
		out := cmd.OutOrStdout()
		u := c.Session.User()
		if !c.Session.Authenticated() || u == nil {
			fmt.Fprintln(out, "Not signed in.")
			return nil
		}
		fmt.Fprintf(out, "%s (%s, id %d)\n", u.DisplayName(), c.Session.Role(), u.ID)
		return nil
	}),
}

// canteen profile [--nickname --phone --avatar]
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the profile, or update it when flags are given",
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
		var upd account.ProfileUpdate
		flags := cmd.Flags()
		if flags.Changed("nickname") {
			upd.Nickname = &nicknameFlag
		}
		if flags.Changed("phone") {
			upd.Phone = &phoneFlag
		}
		if flags.Changed("avatar") {
			upd.AvatarURL = &avatarFlag
		}

		profile := c.Account.Profile
		if upd != (account.ProfileUpdate{}) {
			profile = func(ctx context.Context) (*session.User, error) { return c.Account.Update(ctx, upd) }
		}
		u, err := profile(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Username: %s\nNickname: %s\nPhone:    %s\nAvatar:   %s\nRole:     %s\n",
			u.Username, u.Nickname, u.Phone, u.AvatarURL, u.Role)
		return nil
	}),
}

func init() {
	for _, cmd := range []*cobra.Command{registerCmd, loginCmd} {
		cmd.Flags().StringVarP(&usernameFlag, "username", "u", "", "username")
		cmd.Flags().StringVarP(&passwordFlag, "password", "p", "", "password")
		_ = cmd.MarkFlagRequired("username")
		_ = cmd.MarkFlagRequired("password")
	}
	registerCmd.Flags().StringVar(&nicknameFlag, "nickname", "", "display name")
	registerCmd.Flags().StringVar(&phoneFlag, "phone", "", "phone number")

	profileCmd.Flags().StringVar(&nicknameFlag, "nickname", "", "new display name")
	profileCmd.Flags().StringVar(&phoneFlag, "phone", "", "new phone number")
	profileCmd.Flags().StringVar(&avatarFlag, "avatar", "", "new avatar URL")
}
