package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"slnotes/client"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in and store the session token",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the stored session token",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE:  runRegister,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	RunE:  runWhoami,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <token>",
	Short: "Verify an email address with the token from the mail",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(verifyCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	_, session, err := newSession(cmd)
	if err != nil {
		return err
	}

	password, err := promptLine("Password: ")
	if err != nil {
		return err
	}

	user, err := session.Login(cmd.Context(), args[0], password)
	if err != nil {
		printError(err)
		return err
	}

	fmt.Printf("Logged in as %s <%s>\n", user.FullName, user.Email)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	_, session, err := newSession(cmd)
	if err != nil {
		return err
	}
	if err := session.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func runRegister(cmd *cobra.Command, _ []string) error {
	_, session, err := newSession(cmd)
	if err != nil {
		return err
	}

	fullName, err := promptLine("Full name: ")
	if err != nil {
		return err
	}
	email, err := promptLine("Email: ")
	if err != nil {
		return err
	}
	password, err := promptLine("Password: ")
	if err != nil {
		return err
	}
	confirmPassword, err := promptLine("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirmPassword {
		return errors.New("passwords do not match")
	}

	result, err := session.Register(cmd.Context(), fullName, email, password)
	if err != nil {
		printError(err)
		return err
	}

	fmt.Println(result.Message)
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	_, session, err := newSession(cmd)
	if err != nil {
		return err
	}

	user, err := session.RequireUser()
	if errors.Is(err, client.ErrNotAuthenticated) {
		fmt.Println("Not logged in")
		return nil
	}
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(user)
	}
	fmt.Printf("%s <%s>\n", user.FullName, user.Email)
	if user.IsAdmin {
		fmt.Println("Role: admin")
	}
	if !user.IsVerified {
		fmt.Println("Email not verified")
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	c := newClient()
	if err := c.Auth.Verify(cmd.Context(), args[0]); err != nil {
		printError(err)
		return err
	}
	fmt.Println("Email verified. You can now log in.")
	return nil
}
