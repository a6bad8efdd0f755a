// Package admin - операторская консоль yatubectl поверх хранилища.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/UkralStul/yatube/internal/config"
	"github.com/UkralStul/yatube/internal/forms"
	"github.com/UkralStul/yatube/internal/storage"
	"github.com/UkralStul/yatube/internal/storage/sqlstore"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"
)

// Opener открывает хранилище; close освобождает соединение.
type Opener func(driver, dsn string) (store storage.Storage, close func() error, err error)

// ErrInvalidInput - значения флагов не прошли проверку.
var ErrInvalidInput = errors.New("invalid input")

type migrator interface {
	Migrate() error
}

// OpenSQL открывает SQL-хранилище без логирования запросов.
func OpenSQL(driver, dsn string) (storage.Storage, func() error, error) {
	if dsn == "" {
		return nil, nil, fmt.Errorf("database DSN is required (use --dsn or DATABASE_URL)")
	}
	store, err := sqlstore.Open(driver, dsn, logger.Silent)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

type app struct {
	open   Opener
	driver string
	dsn    string

	store storage.Storage
	close func() error
}

// NewRootCmd собирает дерево команд yatubectl.
func NewRootCmd(open Opener) *cobra.Command {
	a := &app{open: open}

	root := &cobra.Command{
		Use:           "yatubectl",
		Short:         "Manage Yatube users, groups, posts, comments and follows",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := a.open(a.driver, a.dsn)
			if err != nil {
				return fmt.Errorf("error opening storage: %w", err)
			}
			a.store = store
			a.close = closeFn
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.close == nil {
				return nil
			}
			return a.close()
		},
	}

	// Значения по умолчанию берутся из окружения, как у сервера
	defaults, err := config.FromEnv(os.Getenv)
	if err != nil {
		defaults = &config.Config{DBDriver: sqlstore.DriverPostgres}
	}
	root.PersistentFlags().StringVar(&a.driver, "driver", defaults.DBDriver, "Database driver (postgres or mysql)")
	root.PersistentFlags().StringVar(&a.dsn, "dsn", defaults.DatabaseURL, "Database DSN")

	root.AddCommand(
		a.migrateCmd(),
		a.usersCmd(),
		a.groupsCmd(),
		a.postsCmd(),
		a.commentsCmd(),
		a.followsCmd(),
	)
	return root
}

// Execute запускает консоль и завершает процесс при ошибке.
func Execute() {
	if err := NewRootCmd(OpenSQL).Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := a.store.(migrator)
			if !ok {
				return fmt.Errorf("storage does not support migrations")
			}
			if err := m.Migrate(); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

// invalidFlags превращает ошибки полей формы в ошибку команды: --поле: сообщение.
func invalidFlags(errs forms.Errors) error {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		lines = append(lines, fmt.Sprintf("--%s: %s", strings.ReplaceAll(field, "_", "-"), errs[field]))
	}
	return fmt.Errorf("%w:\n%s", ErrInvalidInput, strings.Join(lines, "\n"))
}

func success(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgHiGreen, color.Bold).Fprintf(w, "✅ "+format+"\n", args...)
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
