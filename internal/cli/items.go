package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"listTracker/internal/board"
	"listTracker/internal/models/list"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func newItemCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Элементы списка",
	}
	cmd.AddCommand(newItemAddCmd(app))
	cmd.AddCommand(itemAction(app, "delete <list-id> <item-id>", "Удалить элемент", 0,
		func(ctx context.Context, b *board.Board, item string, _ []string) (board.Result, error) {
			id, err := parseID("элемента", item)
			if err != nil {
				return board.Result{}, err
			}
			return b.DeleteItem(ctx, id), nil
		}))
	cmd.AddCommand(itemAction(app, "move <list-id> <item-id> <position>", "Переставить незавершённый элемент на позицию в секции", 1,
		func(ctx context.Context, b *board.Board, item string, rest []string) (board.Result, error) {
			id, err := parseID("элемента", item)
			if err != nil {
				return board.Result{}, err
			}
			pos, err := strconv.Atoi(rest[0])
			if err != nil {
				return board.Result{}, fmt.Errorf("некорректная позиция %q: %w", rest[0], err)
			}
			return b.MoveItemTo(ctx, id, pos), nil
		}))
	cmd.AddCommand(itemAction(app, "status <list-id> <item-id> <Pending|InProgress|Completed>", "Сменить статус", 1,
		func(ctx context.Context, b *board.Board, item string, rest []string) (board.Result, error) {
			id, err := parseID("элемента", item)
			if err != nil {
				return board.Result{}, err
			}
			return b.SetStatus(ctx, id, list.Status(rest[0])), nil
		}))
	cmd.AddCommand(itemAction(app, "due <list-id> <item-id> <YYYY-MM-DD|none>", "Задать или снять срок", 1,
		func(ctx context.Context, b *board.Board, item string, rest []string) (board.Result, error) {
			id, err := parseID("элемента", item)
			if err != nil {
				return board.Result{}, err
			}
			due, err := parseDate(rest[0])
			if err != nil {
				return board.Result{}, err
			}
			return b.SetDueDate(ctx, id, due), nil
		}))
	cmd.AddCommand(itemAction(app, "estimate <list-id> <item-id> <duration|none>", "Задать или снять оценку времени", 1,
		func(ctx context.Context, b *board.Board, item string, rest []string) (board.Result, error) {
			id, err := parseID("элемента", item)
			if err != nil {
				return board.Result{}, err
			}
			ms, err := parseEstimate(rest[0])
			if err != nil {
				return board.Result{}, err
			}
			return b.SetExpectedMs(ctx, id, ms), nil
		}))
	cmd.AddCommand(itemAction(app, "assign <list-id> <item-id> <user-id>", "Назначить исполнителя", 1,
		func(ctx context.Context, b *board.Board, item string, rest []string) (board.Result, error) {
			id, err := parseID("элемента", item)
			if err != nil {
				return board.Result{}, err
			}
			userID, err := parseID("пользователя", rest[0])
			if err != nil {
				return board.Result{}, err
			}
			return b.AddAssignee(ctx, id, userID), nil
		}))
	cmd.AddCommand(itemAction(app, "unassign <list-id> <item-id> <user-id>", "Снять исполнителя", 1,
		func(ctx context.Context, b *board.Board, item string, rest []string) (board.Result, error) {
			id, err := parseID("элемента", item)
			if err != nil {
				return board.Result{}, err
			}
			userID, err := parseID("пользователя", rest[0])
			if err != nil {
				return board.Result{}, err
			}
			return b.RemoveAssignee(ctx, id, userID), nil
		}))
	return cmd
}

// itemAction команда вида <list-id> <item-id> и ещё extra аргументов.
func itemAction(app *App, use, short string, extra int,
	fn func(ctx context.Context, b *board.Board, item string, rest []string) (board.Result, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2 + extra),
		RunE: func(cmd *cobra.Command, args []string) error {
			var argErr error
			err := app.withBoard(cmd, args[0], func(ctx context.Context, b *board.Board) board.Result {
				res, err := fn(ctx, b, args[1], args[2:])
				if err != nil {
					argErr = err
					return board.Result{}
				}
				return res
			})
			if argErr != nil {
				return argErr
			}
			return err
		},
	}
}

func newItemAddCmd(app *App) *cobra.Command {
	var (
		priority string
		due      string
		estimate string
	)
	cmd := &cobra.Command{
		Use:   "add <list-id> <section-id> <name>",
		Short: "Добавить элемент в конец секции",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sectionID, err := parseID("секции", args[1])
			if err != nil {
				return err
			}
			dueDate, err := parseDate(due)
			if err != nil {
				return err
			}
			ms, err := parseEstimate(estimate)
			if err != nil {
				return err
			}

			return app.withBoard(cmd, args[0], func(ctx context.Context, b *board.Board) board.Result {
				return b.AddItem(ctx, sectionID, args[2], list.Priority(priority), dueDate, ms)
			})
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", string(list.PriorityLow), "Приоритет: Low, Medium, High")
	cmd.Flags().StringVar(&due, "due", "", "Срок YYYY-MM-DD")
	cmd.Flags().StringVar(&estimate, "estimate", "", "Оценка времени, например 1h30m")
	return cmd
}

// parseDate пустая строка и none означают отсутствие срока.
func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "none" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		return nil, fmt.Errorf("некорректная дата %q, нужен формат %s: %w", raw, dateLayout, err)
	}
	return &t, nil
}

func parseEstimate(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "none" {
		return nil, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return nil, fmt.Errorf("некорректная оценка %q: %w", raw, err)
	}
	if d < 0 {
		return nil, fmt.Errorf("оценка времени не может быть отрицательной: %s", raw)
	}
	ms := d.Milliseconds()
	return &ms, nil
}
