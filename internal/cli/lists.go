package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"listTracker/internal/board"
	"listTracker/internal/models/list"
	"listTracker/internal/session"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newHealthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Проверить доступность сервиса",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()
			if err := app.client().Health(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newTokenCmd(app *App) *cobra.Command {
	var (
		userID   string
		username string
		color    string
		secret   string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Выпустить токен сессии (локальная разработка)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return errors.New("нужен --username")
			}
			id := uuid.New()
			if userID != "" {
				parsed, err := parseID("пользователя", userID)
				if err != nil {
					return err
				}
				id = parsed
			}

			manager, err := session.NewManager(secret, ttl)
			if err != nil {
				return err
			}
			token, err := manager.Issue(list.User{ID: id, Username: username, Color: list.Color(color)})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "Id пользователя (по умолчанию новый)")
	cmd.Flags().StringVar(&username, "username", "", "Имя пользователя")
	cmd.Flags().StringVar(&color, "color", string(list.ColorBlue), "Цвет пользователя")
	cmd.Flags().StringVar(&secret, "secret", envOr("LISTS_AUTH_SECRET", ""), "Секрет подписи сервиса")
	cmd.Flags().DurationVar(&ttl, "ttl", session.DefaultTTL, "Время жизни токена")
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Списки",
	}
	cmd.AddCommand(newListCreateCmd(app))
	cmd.AddCommand(newListShowCmd(app))
	cmd.AddCommand(newListDeleteCmd(app))
	cmd.AddCommand(newListFlagCmd(app))
	cmd.AddCommand(newListMemberCmd(app))
	return cmd
}

func newListCreateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Создать список и вывести его id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			res, err := app.client().CreateList(ctx, args[0])
			if err != nil {
				return err
			}
			id, err := res.ID()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newListShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <list-id>",
		Short: "Показать список",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withBoard(cmd, args[0], func(_ context.Context, b *board.Board) board.Result {
				return board.Result{List: b.Snapshot()}
			})
		},
	}
}

func newListDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <list-id>",
		Short: "Удалить список со всеми секциями",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listID, err := parseID("списка", args[0])
			if err != nil {
				return err
			}
			if !yes {
				ok, err := confirm(cmd, "Удалить список вместе со всеми секциями и элементами?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Отменено")
					return nil
				}
			}

			ctx, cancel := app.context(cmd)
			defer cancel()
			res, err := app.client().DeleteList(ctx, listID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Не спрашивать подтверждение")
	return cmd
}

func newListFlagCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "flag <list-id> <hasDueDates|hasTimeTracking>",
		Short:     "Переключить флаг списка",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(list.FlagDueDates), string(list.FlagTimeTracking)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withBoard(cmd, args[0], func(ctx context.Context, b *board.Board) board.Result {
				return b.ToggleFlag(ctx, list.Flag(args[1]))
			})
		},
	}
}

func newListMemberCmd(app *App) *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "member <list-id> <user-id> <username>",
		Short: "Добавить участника",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID("пользователя", args[1])
			if err != nil {
				return err
			}
			user := list.User{ID: userID, Username: args[2], Color: list.Color(color)}
			return app.withBoard(cmd, args[0], func(ctx context.Context, b *board.Board) board.Result {
				return b.AddMember(ctx, user)
			})
		},
	}
	cmd.Flags().StringVar(&color, "color", string(list.ColorViolet), "Цвет участника")
	return cmd
}

func newSectionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "section",
		Short: "Секции",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <list-id> <name>",
		Short: "Добавить секцию",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withBoard(cmd, args[0], func(ctx context.Context, b *board.Board) board.Result {
				return b.AddSection(ctx, args[1])
			})
		},
	})
	cmd.AddCommand(newSectionDeleteCmd(app))
	return cmd
}

func newSectionDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <list-id> <section-id>",
		Short: "Удалить секцию вместе с элементами",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sectionID, err := parseID("секции", args[1])
			if err != nil {
				return err
			}

			var confirmErr error
			err = app.withBoard(cmd, args[0], func(ctx context.Context, b *board.Board) board.Result {
				snap := b.Snapshot()
				if s, _ := snap.Section(sectionID); s != nil && !yes {
					prompt := fmt.Sprintf("Удалить секцию %q вместе с %d элементами?", s.Name, len(s.Items))
					ok, err := confirm(cmd, prompt)
					if err != nil {
						confirmErr = err
						return board.Result{}
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), "Отменено")
						return board.Result{}
					}
				}
				return b.DeleteSection(ctx, sectionID)
			})
			if confirmErr != nil {
				return confirmErr
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Не спрашивать подтверждение")
	return cmd
}
