package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"slnotes/client"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Platform administration",
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show platform statistics",
	RunE:  runAdminStats,
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users",
	RunE:  runAdminUsers,
}

var adminUserSetCmd = &cobra.Command{
	Use:   "user-set <id>",
	Short: "Set a user's verified/admin flags",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminUserSet,
}

var adminUserDeleteCmd = &cobra.Command{
	Use:   "user-delete <id>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminUserDelete,
}

var adminNotesCmd = &cobra.Command{
	Use:   "notes",
	Short: "List all notes, including unpublished",
	RunE:  runAdminNotes,
}

var adminPublishCmd = &cobra.Command{
	Use:   "publish <id>",
	Short: "Toggle a note's publish state",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminPublish,
}

var adminNoteDeleteCmd = &cobra.Command{
	Use:   "note-delete <id>",
	Short: "Delete any note",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminNoteDelete,
}

func init() {
	adminUserSetCmd.Flags().Bool("verified", false, "mark the email verified")
	adminUserSetCmd.Flags().Bool("admin", false, "grant admin access")

	adminCmd.AddCommand(adminStatsCmd)
	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(adminUserSetCmd)
	adminCmd.AddCommand(adminUserDeleteCmd)
	adminCmd.AddCommand(adminNotesCmd)
	adminCmd.AddCommand(adminPublishCmd)
	adminCmd.AddCommand(adminNoteDeleteCmd)

	rootCmd.AddCommand(adminCmd)
}

func runAdminStats(cmd *cobra.Command, _ []string) error {
	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}
	stats, err := c.Admin.Stats(cmd.Context())
	if err != nil {
		printError(err)
		return err
	}

	if jsonOut {
		return printJSON(stats)
	}
	w := newTable()
	fmt.Fprintf(w, "Users\t%d (%d verified)\n", stats.TotalUsers, stats.VerifiedUsers)
	fmt.Fprintf(w, "Notes\t%d (%d published)\n", stats.TotalNotes, stats.PublishedNotes)
	fmt.Fprintf(w, "Subjects\t%d\n", stats.TotalSubjects)
	fmt.Fprintf(w, "Views\t%d\n", stats.TotalViews)
	return w.Flush()
}

func runAdminUsers(cmd *cobra.Command, _ []string) error {
	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}
	users, err := c.Admin.Users(cmd.Context())
	if err != nil {
		printError(err)
		return err
	}

	if jsonOut {
		return printJSON(users)
	}
	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tVERIFIED\tADMIN")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%t\n", u.ID, u.FullName, u.Email, u.IsVerified, u.IsAdmin)
	}
	return w.Flush()
}

func runAdminUserSet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}

	// Only flags the operator passed are sent; the rest stay as they are.
	var flags client.UserFlags
	if cmd.Flags().Changed("verified") {
		verified, _ := cmd.Flags().GetBool("verified")
		flags.IsVerified = client.Bool(verified)
	}
	if cmd.Flags().Changed("admin") {
		isAdmin, _ := cmd.Flags().GetBool("admin")
		flags.IsAdmin = client.Bool(isAdmin)
	}

	user, err := c.Admin.UpdateUser(cmd.Context(), id, flags)
	if err != nil {
		printError(err)
		return err
	}
	fmt.Printf("Updated %s: verified=%t admin=%t\n", user.Email, user.IsVerified, user.IsAdmin)
	return nil
}

func runAdminUserDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}
	if !confirm(fmt.Sprintf("Delete user %d and all their notes?", id)) {
		fmt.Println("Aborted")
		return nil
	}

	if err := c.Admin.DeleteUser(cmd.Context(), id); err != nil {
		printError(err)
		return err
	}
	fmt.Println("User deleted")
	return nil
}

func runAdminNotes(cmd *cobra.Command, _ []string) error {
	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}
	notes, err := c.Admin.Notes(cmd.Context())
	if err != nil {
		printError(err)
		return err
	}
	return printNotes(notes)
}

// runAdminPublish toggles the note, then reconciles the fetched list in
// place instead of refetching it.
func runAdminPublish(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}

	notes, err := c.Admin.Notes(cmd.Context())
	if err != nil {
		printError(err)
		return err
	}
	list := client.NoteList(notes)

	published, err := c.Admin.TogglePublish(cmd.Context(), id)
	if err != nil {
		printError(err)
		return err
	}
	list.SetPublished(id, published)

	if published {
		fmt.Printf("Note %d published\n", id)
	} else {
		fmt.Printf("Note %d unpublished\n", id)
	}
	return printNotes(list)
}

func runAdminNoteDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}
	if !confirm(fmt.Sprintf("Delete note %d?", id)) {
		fmt.Println("Aborted")
		return nil
	}

	notes, err := c.Admin.Notes(cmd.Context())
	if err != nil {
		printError(err)
		return err
	}
	list := client.NoteList(notes)

	if err := c.Notes.Delete(cmd.Context(), id); err != nil {
		printError(err)
		return err
	}
	list.Remove(id)

	fmt.Println("Note deleted")
	return printNotes(list)
}
