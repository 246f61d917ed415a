// cmd/topupctl/order.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"game-topup-bot/internal/core/domain/notify"
	"game-topup-bot/internal/core/domain/order"
	"game-topup-bot/internal/core/domain/reconciliation"
	"game-topup-bot/internal/delivery/telegram/app/bot/message_sender"
	"game-topup-bot/internal/delivery/telegram/app/http_client"
	"game-topup-bot/internal/infrastructure/persistence/postgres"
	"game-topup-bot/internal/infrastructure/persistence/postgres/models"
	orderrepo "game-topup-bot/internal/infrastructure/persistence/postgres/repository/order"

	"github.com/spf13/cobra"
)

func orderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Просмотр и ручная правка заказов",
	}

	var asJSON bool
	getCmd := &cobra.Command{
		Use:   "get <ref_id>",
		Short: "Показать заказ",
		Args:  cobra.ExactArgs(1),
		RunE: withLedger(func(ctx context.Context, ledger order.Ledger, cmd *cobra.Command, args []string) error {
			return runOrderGet(ctx, ledger, cmd.OutOrStdout(), args[0], asJSON)
		}),
	}
	getCmd.Flags().BoolVarP(&asJSON, "json", "j", false, "вывод в JSON")

	var chatID int64
	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Последние заказы чата",
		Args:  cobra.NoArgs,
		RunE: withLedger(func(ctx context.Context, ledger order.Ledger, cmd *cobra.Command, args []string) error {
			return runOrderList(ctx, ledger, cmd.OutOrStdout(), chatID, limit)
		}),
	}
	listCmd.Flags().Int64Var(&chatID, "chat", 0, "chat_id владельца")
	listCmd.Flags().IntVarP(&limit, "limit", "n", 10, "максимум заказов")
	_ = listCmd.MarkFlagRequired("chat")

	var notifyOwner bool
	setStatusCmd := &cobra.Command{
		Use:   "set-status <ref_id> <status>",
		Short: "Записать статус вручную, как если бы пришел callback",
		Args:  cobra.ExactArgs(2),
		RunE: withLedger(func(ctx context.Context, ledger order.Ledger, cmd *cobra.Command, args []string) error {
			var notifier notify.Notifier = discardNotifier
			if notifyOwner {
				client := http_client.NewTelegramClient(cfg.Telegram.APIURL, cfg.Telegram.BotToken)
				notifier = message_sender.NewMessageSender(client, cfg.Telegram.RateLimit)
			}
			rec := reconciliation.NewReconciler(ledger, notifier, nil)
			return runSetStatus(ctx, rec, cmd.OutOrStdout(), args[0], args[1])
		}),
	}
	setStatusCmd.Flags().BoolVar(&notifyOwner, "notify", false, "отправить владельцу уведомление в Telegram")

	cmd.AddCommand(getCmd, listCmd, setStatusCmd)
	return cmd
}

var discardNotifier = notify.NotifierFunc(func(context.Context, int64, notify.Message) error { return nil })

func withLedger(run func(ctx context.Context, ledger order.Ledger, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dbCfg := cfg.Database
		dbCfg.EnableAutoMigrate = false
		db, err := postgres.Connect(ctx, dbCfg)
		if err != nil {
			return err
		}
		defer db.Close()

		return run(ctx, orderrepo.NewOrderRepository(db), cmd, args)
	}
}

func runOrderGet(ctx context.Context, ledger order.Ledger, w io.Writer, refID string, asJSON bool) error {
	o, err := ledger.Get(ctx, refID)
	if err != nil {
		return fmt.Errorf("заказ %s: %w", refID, err)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(o)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ref_id\t%s\n", o.RefID)
	fmt.Fprintf(tw, "chat_id\t%d\n", o.ChatID)
	fmt.Fprintf(tw, "account\t%s\n", o.TargetAccountID)
	fmt.Fprintf(tw, "amount\t%s (%s)\n", o.AmountCode, o.SkuCode)
	fmt.Fprintf(tw, "status\t%s\n", o.Status)
	fmt.Fprintf(tw, "created\t%s\n", o.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(tw, "updated\t%s\n", o.UpdatedAt.Format("2006-01-02 15:04:05"))
	if len(o.RawResponse) > 0 {
		fmt.Fprintf(tw, "raw\t%s\n", string(o.RawResponse))
	}
	return tw.Flush()
}

func runOrderList(ctx context.Context, ledger order.Ledger, w io.Writer, chatID int64, limit int) error {
	orders, err := ledger.ListByChat(ctx, chatID, limit)
	if err != nil {
		return fmt.Errorf("заказы чата %d: %w", chatID, err)
	}
	if len(orders) == 0 {
		fmt.Fprintf(w, "у чата %d нет заказов\n", chatID)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REF_ID\tACCOUNT\tAMOUNT\tSTATUS\tCREATED")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			o.RefID, o.TargetAccountID, o.AmountCode, o.Status, o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// runSetStatus проводит статус через тот же путь, что и callback провайдера
func runSetStatus(ctx context.Context, rec *reconciliation.Reconciler, w io.Writer, refID, status string) error {
	raw, err := json.Marshal(map[string]string{"ref_id": refID, "status": status, "source": "topupctl"})
	if err != nil {
		return err
	}

	result, err := rec.Apply(ctx, &reconciliation.Callback{
		RefID:  refID,
		Status: models.NormalizeStatus(status),
		Raw:    models.RawJSON(raw),
	})
	if err != nil {
		return err
	}
	if result.Outcome == reconciliation.OutcomeUnknownOrder {
		return fmt.Errorf("заказ %s: %w", refID, order.ErrNotFound)
	}

	fmt.Fprintf(w, "✅ %s -> %s (уведомление: %s)\n", result.RefID, result.Status, strconv.FormatBool(result.Notified))
	return nil
}
