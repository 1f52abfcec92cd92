package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"listTracker/internal/board"
	"listTracker/internal/client"
	"listTracker/internal/logger"
	"listTracker/internal/notify"
	"listTracker/internal/render"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ErrActionFailed действие не выполнено; причина уже выведена уведомлением.
var ErrActionFailed = errors.New("действие не выполнено")

type App struct {
	Server   string
	Token    string
	LogFile  string
	LogLevel string
	Timeout  time.Duration
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "listctl",
		Short:         "Клиент сервиса списков",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Выпустить токен для локального сервиса
  listctl token --username anna --secret "$LISTS_AUTH_SECRET"

  # Создать список и секцию
  listctl list create Groceries
  listctl section add <list-id> Todo

  # Переставить элемент на вторую позицию
  listctl item move <list-id> <item-id> 1
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if app.LogFile == "" {
			return nil
		}
		if err := logger.UseFile(app.LogFile, app.LogLevel); err != nil {
			return fmt.Errorf("лог-файл %s: %w", app.LogFile, err)
		}
		return nil
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		logger.Sync()
	}

	cmd.PersistentFlags().StringVar(&app.Server, "server", envOr("LISTS_SERVER", "http://localhost:8080"), "Адрес сервиса списков")
	cmd.PersistentFlags().StringVar(&app.Token, "token", envOr("LISTS_TOKEN", ""), "Токен сессии")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", envOr("LISTS_LOG_FILE", ""), "Файл для логов клиента")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("LISTS_LOG_LEVEL", "info"), "Уровень логов")
	cmd.PersistentFlags().DurationVar(&app.Timeout, "timeout", 30*time.Second, "Таймаут одной команды")

	cmd.AddCommand(newHealthCmd(app))
	cmd.AddCommand(newTokenCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newSectionCmd(app))
	cmd.AddCommand(newItemCmd(app))
	cmd.AddCommand(newTagCmd(app))

	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (a *App) client() *client.Client {
	return client.New(a.Server, a.Token, client.WithLogger(logger.Logger))
}

func (a *App) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.Timeout)
}

// withBoard открывает сессию списка, выполняет действие и печатает
// уведомления и итоговый список.
func (a *App) withBoard(cmd *cobra.Command, listArg string, fn func(ctx context.Context, b *board.Board) board.Result) error {
	listID, err := parseID("списка", listArg)
	if err != nil {
		return err
	}

	ctx, cancel := a.context(cmd)
	defer cancel()

	notes := notify.NewChannel(16)
	defer notes.Close()

	b, err := board.Open(ctx, a.client(), listID,
		board.WithNotifier(notes),
		board.WithLogger(logger.Logger))
	if err != nil {
		return err
	}
	defer b.Close()

	res := fn(ctx, b)

	out := cmd.OutOrStdout()
	for _, n := range notes.Drain() {
		fmt.Fprintln(out, render.Notification(n))
	}
	if res.Err != nil {
		return fmt.Errorf("%w: %w", ErrActionFailed, res.Err)
	}
	if res.List != nil {
		fmt.Fprintln(out, render.List(res.List, time.Now()))
	}
	return nil
}

func parseID(what, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("некорректный id %s %q: %w", what, raw, err)
	}
	return id, nil
}

// confirm спрашивает подтверждение в stdin команды.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "д", "да":
		return true, nil
	}
	return false, nil
}
