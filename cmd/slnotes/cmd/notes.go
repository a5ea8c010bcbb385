package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"slnotes/client"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Browse and publish study notes",
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List published notes",
	RunE:  runNotesList,
}

var notesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one note",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotesGet,
}

var notesCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Publish a note",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotesCreate,
}

var notesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one of your notes",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotesDelete,
}

var notesMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your own notes",
	RunE:  runNotesMine,
}

var notesAttachCmd = &cobra.Command{
	Use:   "attach <id> <file>",
	Short: "Upload a file and attach it to one of your notes",
	Args:  cobra.ExactArgs(2),
	RunE:  runNotesAttach,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search notes",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	notesListCmd.Flags().Int64("subject", 0, "filter by subject id")
	notesListCmd.Flags().String("exam-type", "", "filter by exam type")
	notesListCmd.Flags().String("topic", "", "filter by topic")
	notesListCmd.Flags().Int("page", 1, "page number")
	notesListCmd.Flags().Int("per-page", 12, "notes per page")

	notesCreateCmd.Flags().Int64("subject", 0, "subject id (required)")
	notesCreateCmd.Flags().String("topic", "", "topic within the subject")
	notesCreateCmd.Flags().String("content", "", "note body; reads stdin when empty")
	notesCreateCmd.Flags().String("file", "", "attach a file (pdf or image)")
	_ = notesCreateCmd.MarkFlagRequired("subject")

	searchCmd.Flags().Int64("subject", 0, "filter by subject id")
	searchCmd.Flags().String("exam-type", "", "filter by exam type")
	searchCmd.Flags().Int("limit", 20, "maximum results")

	notesCmd.AddCommand(notesListCmd)
	notesCmd.AddCommand(notesGetCmd)
	notesCmd.AddCommand(notesCreateCmd)
	notesCmd.AddCommand(notesDeleteCmd)
	notesCmd.AddCommand(notesMineCmd)
	notesCmd.AddCommand(notesAttachCmd)

	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(searchCmd)
}

func printNotes(notes []client.Note) error {
	if jsonOut {
		return printJSON(notes)
	}
	if len(notes) == 0 {
		fmt.Println("No notes found")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tTITLE\tSUBJECT\tVIEWS\tPUBLISHED")
	for _, n := range notes {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%t\n", n.ID, truncate(n.Title, 40), n.SubjectID, n.ViewCount, n.IsPublished)
	}
	return w.Flush()
}

func runNotesList(cmd *cobra.Command, _ []string) error {
	c := newClient()

	subjectID, _ := cmd.Flags().GetInt64("subject")
	examType, _ := cmd.Flags().GetString("exam-type")
	topic, _ := cmd.Flags().GetString("topic")
	pageNum, _ := cmd.Flags().GetInt("page")
	perPage, _ := cmd.Flags().GetInt("per-page")

	page, err := c.Notes.List(cmd.Context(), client.ListNotesOptions{
		SubjectID: subjectID,
		ExamType:  examType,
		Topic:     topic,
		Page:      pageNum,
		PerPage:   perPage,
	})
	if err != nil {
		printError(err)
		return err
	}

	if jsonOut {
		return printJSON(page)
	}
	if err := printNotes(page.Notes); err != nil {
		return err
	}
	fmt.Printf("\nPage %d of %d (%d notes)\n", page.Page, page.Pages, page.Total)
	return nil
}

func runNotesGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	c := newClient()
	note, err := c.Notes.Get(cmd.Context(), id)
	if err != nil {
		printError(err)
		return err
	}

	if jsonOut {
		return printJSON(note)
	}
	fmt.Printf("%s\n\n%s\n", note.Title, note.Content)
	if note.FileURL != nil {
		fmt.Printf("\nAttachment: %s%s\n", c.BaseURL(), *note.FileURL)
	}
	fmt.Printf("\nViews: %d\n", note.ViewCount)
	return nil
}

func runNotesCreate(cmd *cobra.Command, args []string) error {
	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}

	subjectID, _ := cmd.Flags().GetInt64("subject")
	topic, _ := cmd.Flags().GetString("topic")
	content, _ := cmd.Flags().GetString("content")
	filePath, _ := cmd.Flags().GetString("file")

	if content == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read content from stdin: %w", err)
		}
		content = string(data)
	}

	input := client.NoteInput{
		Title:     args[0],
		Content:   content,
		SubjectID: subjectID,
	}
	if topic != "" {
		input.Topic = &topic
	}

	var note *client.Note
	if filePath != "" {
		f, err := os.Open(filePath)
		if err != nil {
			return err
		}
		defer f.Close()
		note, err = c.Notes.CreateWithFile(cmd.Context(), input, filepath.Base(filePath), f)
		if err != nil {
			printError(err)
			return err
		}
	} else {
		note, err = c.Notes.Create(cmd.Context(), input)
		if err != nil {
			printError(err)
			return err
		}
	}

	fmt.Printf("Published note %d: %s\n", note.ID, note.Title)
	return nil
}

func runNotesDelete(cmd *cobra.Command, args []string) error {
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

	if err := c.Notes.Delete(cmd.Context(), id); err != nil {
		printError(err)
		return err
	}
	fmt.Println("Note deleted")
	return nil
}

func runNotesAttach(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}

	f, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer f.Close()

	fileURL, err := c.Notes.UploadToNote(cmd.Context(), id, filepath.Base(args[1]), f)
	if err != nil {
		printError(err)
		return err
	}
	fmt.Printf("Attached %s to note %d\n", fileURL, id)
	return nil
}

func runNotesMine(cmd *cobra.Command, _ []string) error {
	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}
	notes, err := c.Notes.Mine(cmd.Context())
	if err != nil {
		printError(err)
		return err
	}
	return printNotes(notes)
}

func runSearch(cmd *cobra.Command, args []string) error {
	c := newClient()

	subjectID, _ := cmd.Flags().GetInt64("subject")
	examType, _ := cmd.Flags().GetString("exam-type")
	limit, _ := cmd.Flags().GetInt("limit")

	notes, err := c.Notes.Search(cmd.Context(), args[0], client.SearchOptions{
		SubjectID: subjectID,
		ExamType:  examType,
		Limit:     limit,
	})
	if err != nil {
		printError(err)
		return err
	}
	return printNotes(notes)
}
