package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/readmind/internal/config"
	"github.com/abhisek/readmind/internal/notes"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Manage reading notes outside the reader",
}

var notesListCmd = &cobra.Command{
	Use:   "list [text-id]",
	Short: "List notes for a text, or the texts that have notes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openStorage(cfg)
		if err != nil {
			return err
		}
		defer d.Close()
		ctx := cmd.Context()

		if len(args) == 0 {
			if cfg.Notes.Backend != config.NotesSQLite {
				return errors.New("listing texts needs the sqlite note backend; pass a text id")
			}
			ids, err := d.store.NoteRepo().TextIDs(ctx)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("No notes yet.")
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		}

		book, err := openBook(ctx, d, args[0])
		if err != nil {
			return err
		}
		list := book.List()
		if len(list) == 0 {
			fmt.Printf("No notes for %s.\n", args[0])
			return nil
		}
		for _, n := range list {
			fmt.Printf("%s  %-9s  %s  %s\n",
				n.ID, n.Status, n.Time().Local().Format("2006-01-02 15:04"), n.Content)
		}
		return nil
	},
}

var notesAddCmd = &cobra.Command{
	Use:   "add <text-id> <content...>",
	Short: "Add a draft note",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd, args[0], func(ctx context.Context, b *notes.Book) error {
			n, err := b.Add(ctx, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Println(n.ID)
			return nil
		})
	},
}

var notesSubmitCmd = &cobra.Command{
	Use:   "submit <text-id> <note-id>",
	Short: "Mark a note as submitted",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd, args[0], func(ctx context.Context, b *notes.Book) error {
			return b.Submit(ctx, args[1])
		})
	},
}

var notesDeleteCmd = &cobra.Command{
	Use:   "delete <text-id> <note-id>",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd, args[0], func(ctx context.Context, b *notes.Book) error {
			return b.Delete(ctx, args[1])
		})
	},
}

// openBook opens the notes of a catalog text; unknown text ids are
// rejected so typos do not create orphan entries.
func openBook(ctx context.Context, d *deps, textID string) (*notes.Book, error) {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if _, err := cat.Get(textID); err != nil {
		return nil, err
	}
	return notes.Open(ctx, d.notes, textID)
}

func withBook(cmd *cobra.Command, textID string, fn func(context.Context, *notes.Book) error) error {
	d, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	book, err := openBook(cmd.Context(), d, textID)
	if err != nil {
		return err
	}
	return fn(cmd.Context(), book)
}

func init() {
	notesCmd.AddCommand(notesListCmd)
	notesCmd.AddCommand(notesAddCmd)
	notesCmd.AddCommand(notesSubmitCmd)
	notesCmd.AddCommand(notesDeleteCmd)
}
