package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"libtrack/internal/adapters/persistence/models"
	"libtrack/internal/adapters/persistence/repositories"
	"libtrack/internal/config"
	"libtrack/internal/core/domain"
	"libtrack/internal/core/services"
	"libtrack/internal/pkg/clock"
	"libtrack/internal/pkg/idgen"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02 15:04"

type cli struct {
	dbPath    string
	policy    string
	studentID string
	admin     bool

	clock   clock.Clock
	db      *gorm.DB
	lending *services.LendingService
}

func newRootCmd(clk clock.Clock) *cobra.Command {
	app := &cli{clock: clk}

	root := &cobra.Command{
		Use:           "libcli",
		Short:         "Library circulation tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.dbPath, "db", "library.db", "SQLite database file")
	flags.StringVar(&app.policy, "policy", domain.PolicyOpen, "return policy: open or role-gated")
	flags.StringVar(&app.studentID, "student", "", "act as this student (roll number)")
	flags.BoolVar(&app.admin, "admin", false, "act with the admin role")

	root.AddCommand(
		app.seedCmd(),
		app.booksCmd(),
		app.studentsCmd(),
		app.registerStudentCmd(),
		app.addBookCmd(),
		app.borrowCmd(),
		app.returnCmd(),
		app.historyCmd(),
	)
	return root
}

func (a *cli) open() error {
	policy, err := domain.ParsePolicy(a.policy)
	if err != nil {
		return err
	}
	// A flag can't prove who the caller is
	if policy.Name() == domain.PolicyServerEnforced {
		return fmt.Errorf("policy %q needs the HTTP server, use open or role-gated", policy.Name())
	}

	db, err := config.OpenSQLite(a.dbPath, nil)
	if err != nil {
		return err
	}
	if err := models.AutoMigrate(db); err != nil {
		return err
	}

	a.db = db
	a.lending = services.NewLendingService(
		repositories.NewCatalogStore(db),
		repositories.NewLoanLedger(db),
		policy,
		idgen.Random{},
	)
	return nil
}

func (a *cli) close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (a *cli) actor() domain.Actor {
	actor := domain.Actor{StudentID: a.studentID, Role: domain.RoleAnonymous}
	switch {
	case a.admin:
		actor.Role = domain.RoleAdmin
	case a.studentID != "":
		actor.Role = domain.RoleStudent
	}
	return actor
}

func (a *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account, demo students and demo books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.NewSeeder(a.db, idgen.Random{}).Run(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Seeded.")
			return nil
		},
	}
}

func (a *cli) booksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List books, available first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := a.lending.ListBooks(cmd.Context())
			if err != nil {
				return err
			}

			now := a.clock.Now()
			actor := a.actor()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tSTATUS\tBORROWER\tDUE\tFINE\tRETURN")
			for _, b := range books {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					b.ID, b.Title, b.Author,
					statusLabel(b, now),
					orDash(b.BorrowedBy()),
					formatDue(b.DueDate),
					a.lending.CurrentFine(b, now),
					yesNo(!b.IsAvailable() && a.lending.CanReturn(actor, b, false)),
				)
			}
			return w.Flush()
		},
	}
}

func (a *cli) studentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "students",
		Short: "List students",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			students, err := a.lending.ListStudents(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			for _, s := range students {
				fmt.Fprintf(w, "%s\t%s\n", s.ID, s.Name)
			}
			return w.Flush()
		},
	}
}

func (a *cli) registerStudentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register-student ID NAME",
		Short: "Register a student",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			student, err := a.lending.RegisterStudent(cmd.Context(), args[0], args[1])
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", student.Name, student.ID)
			return nil
		},
	}
}

func (a *cli) addBookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-book TITLE AUTHOR",
		Short: "Add a book to the catalog (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.actor().IsAdmin() {
				return errors.New("adding books needs --admin")
			}
			book, err := a.lending.AddBook(cmd.Context(), args[0], args[1])
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", book.Title, book.ID)
			return nil
		},
	}
}

func (a *cli) borrowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "borrow BOOK_ID",
		Short: "Borrow a book for the student given by --student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.lending.Borrow(cmd.Context(), args[0], a.studentID, a.clock.Now())
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Borrowed %s, due %s\n", result.Book.ID, result.DueDate.Format(dateLayout))
			return nil
		},
	}
}

func (a *cli) returnCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "return BOOK_ID",
		Short: "Return a book and show the late fine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.lending.Return(cmd.Context(), args[0], a.clock.Now(), a.actor(), force)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Returned %s, fine %d\n", result.Book.ID, result.Fine)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "return on behalf of the borrower (open policy)")
	return cmd
}

func (a *cli) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history BOOK_ID",
		Short: "Show the circulation history of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := a.lending.History(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tKIND\tSTUDENT\tDUE\tFINE\tBY")
			for _, e := range events {
				by := orDash(e.ActorID)
				if e.Forced {
					by += " (forced)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
					e.OccurredAt.Format(dateLayout), e.Kind, orDash(e.StudentID), formatDue(e.DueDate), e.Fine, by)
			}
			return w.Flush()
		},
	}
}

// describe turns domain errors into messages for the terminal
func describe(err error) error {
	switch {
	case errors.Is(err, domain.ErrStudentRequired):
		return errors.New("select a student with --student")
	case errors.Is(err, domain.ErrNotAvailable):
		return errors.New("book is already borrowed")
	case errors.Is(err, domain.ErrUnauthorized):
		return errors.New("not allowed to return this book (try --admin, or --force under the open policy)")
	}
	return err
}

func statusLabel(b *domain.Book, now time.Time) string {
	if domain.IsOverdue(b, now) {
		return "overdue"
	}
	return string(b.Status)
}

func formatDue(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
