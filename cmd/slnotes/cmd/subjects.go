package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"slnotes/client"
)

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "Browse and manage subjects",
}

var subjectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subjects",
	RunE:  runSubjectsList,
}

var subjectsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one subject",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubjectsGet,
}

var subjectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a subject (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubjectsCreate,
}

var subjectsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a subject (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubjectsDelete,
}

var subjectsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search subjects by name or exam type",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubjectsSearch,
}

func init() {
	subjectsListCmd.Flags().String("exam-type", "", "filter by exam type (e.g. OL, AL)")
	subjectsListCmd.Flags().Bool("all", false, "include inactive subjects")

	subjectsCreateCmd.Flags().String("exam-type", "", "exam type (required)")
	subjectsCreateCmd.Flags().String("description", "", "subject description")
	_ = subjectsCreateCmd.MarkFlagRequired("exam-type")

	subjectsCmd.AddCommand(subjectsListCmd)
	subjectsCmd.AddCommand(subjectsGetCmd)
	subjectsCmd.AddCommand(subjectsCreateCmd)
	subjectsCmd.AddCommand(subjectsDeleteCmd)
	subjectsCmd.AddCommand(subjectsSearchCmd)

	rootCmd.AddCommand(subjectsCmd)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func printSubjects(subjects []client.Subject) error {
	if jsonOut {
		return printJSON(subjects)
	}
	if len(subjects) == 0 {
		fmt.Println("No subjects found")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tEXAM\tACTIVE")
	for _, s := range subjects {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", s.ID, s.Name, s.ExamType, s.IsActive)
	}
	return w.Flush()
}

func runSubjectsList(cmd *cobra.Command, _ []string) error {
	c := newClient()
	examType, _ := cmd.Flags().GetString("exam-type")
	all, _ := cmd.Flags().GetBool("all")

	subjects, err := c.Subjects.List(cmd.Context(), client.ListSubjectsOptions{
		ExamType:        examType,
		IncludeInactive: all,
	})
	if err != nil {
		printError(err)
		return err
	}
	return printSubjects(subjects)
}

func runSubjectsGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	c := newClient()
	subject, err := c.Subjects.Get(cmd.Context(), id)
	if err != nil {
		printError(err)
		return err
	}

	if jsonOut {
		return printJSON(subject)
	}
	fmt.Printf("%s (%s)\n", subject.Name, subject.ExamType)
	if subject.Description != nil {
		fmt.Println(*subject.Description)
	}
	return nil
}

func runSubjectsCreate(cmd *cobra.Command, args []string) error {
	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}

	examType, _ := cmd.Flags().GetString("exam-type")
	description, _ := cmd.Flags().GetString("description")

	input := client.SubjectInput{Name: args[0], ExamType: examType}
	if description != "" {
		input.Description = &description
	}

	subject, err := c.Subjects.Create(cmd.Context(), input)
	if err != nil {
		printError(err)
		return err
	}
	fmt.Printf("Created subject %d: %s (%s)\n", subject.ID, subject.Name, subject.ExamType)
	return nil
}

func runSubjectsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}
	if !confirm(fmt.Sprintf("Delete subject %d and all its notes?", id)) {
		fmt.Println("Aborted")
		return nil
	}

	if err := c.Subjects.Delete(cmd.Context(), id); err != nil {
		printError(err)
		return err
	}
	fmt.Println("Subject deleted")
	return nil
}

func runSubjectsSearch(cmd *cobra.Command, args []string) error {
	c := newClient()
	subjects, err := c.Subjects.Search(cmd.Context(), args[0])
	if err != nil {
		printError(err)
		return err
	}
	return printSubjects(subjects)
}

// sessionClient returns a client with the stored token attached, requiring
// a logged-in session.
func sessionClient(cmd *cobra.Command) (*client.Client, *client.Session, error) {
	c, session, err := newSession(cmd)
	if err != nil {
		return nil, nil, err
	}
	if _, err := session.RequireUser(); err != nil {
		return nil, nil, err
	}
	return c, session, nil
}
