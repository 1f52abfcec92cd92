package cli

import (
	"context"

	"listTracker/internal/board"
	"listTracker/internal/models/list"

	"github.com/spf13/cobra"
)

func newTagCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Теги списка",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <list-id> <name> <color>",
		Short: "Создать тег",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withBoard(cmd, args[0], func(ctx context.Context, b *board.Board) board.Result {
				return b.CreateTag(ctx, args[1], list.Color(args[2]))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <list-id> <tag-id>",
		Short: "Удалить тег и отвязать его от элементов",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tagID, err := parseID("тега", args[1])
			if err != nil {
				return err
			}
			return app.withBoard(cmd, args[0], func(ctx context.Context, b *board.Board) board.Result {
				return b.DeleteTag(ctx, tagID)
			})
		},
	})

	cmd.AddCommand(itemAction(app, "link <list-id> <item-id> <tag-id>", "Привязать тег к элементу", 1,
		func(ctx context.Context, b *board.Board, item string, rest []string) (board.Result, error) {
			id, err := parseID("элемента", item)
			if err != nil {
				return board.Result{}, err
			}
			tagID, err := parseID("тега", rest[0])
			if err != nil {
				return board.Result{}, err
			}
			return b.LinkTag(ctx, id, tagID), nil
		}))

	cmd.AddCommand(itemAction(app, "unlink <list-id> <item-id> <tag-id>", "Отвязать тег от элемента", 1,
		func(ctx context.Context, b *board.Board, item string, rest []string) (board.Result, error) {
			id, err := parseID("элемента", item)
			if err != nil {
				return board.Result{}, err
			}
			tagID, err := parseID("тега", rest[0])
			if err != nil {
				return board.Result{}, err
			}
			return b.UnlinkTag(ctx, id, tagID), nil
		}))

	cmd.AddCommand(itemAction(app, "new <list-id> <item-id> <name> <color>", "Создать тег и сразу привязать его", 2,
		func(ctx context.Context, b *board.Board, item string, rest []string) (board.Result, error) {
			id, err := parseID("элемента", item)
			if err != nil {
				return board.Result{}, err
			}
			return b.LinkNewTag(ctx, id, rest[0], list.Color(rest[1])), nil
		}))

	return cmd
}
