package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"saldo/internal/aggregate"
	"saldo/internal/core"
	"saldo/internal/export"
	apphttp "saldo/internal/http"
	"saldo/internal/log"
	"saldo/internal/notify"
	"saldo/internal/parser"
)

const (
	parseTimeout          = 20 * time.Second
	serverShutdownTimeout = 30 * time.Second
)

// ErrUnknownCommand is returned for a missing or unrecognized subcommand.
var ErrUnknownCommand = errors.New("unknown command")

// Usage lists the subcommands understood by Run.
const Usage = `usage: saldo <command> [flags]

records:
  add         -amount 12.50 -type expense -category Food [-desc text] [-date YYYY-MM-DD]
  rm          <transaction-id>
  list        [-n count]
  categories  [add -name N -type expense|income [-color #hex] | rm <id>]
  currency    [symbol]

reports:
  summary
  daily
  period      [-view week|month]

sync:
  connect     -credential <token file or JSON> [-file name]
  disconnect
  push
  pull
  watch       [-pull]

other:
  export      [-what transactions|categories] [-o file]
  parse       [-save] <free text>
  serve
`

type command func(a *App, ctx context.Context, args []string, out io.Writer) error

var commands = map[string]command{
	"add":        (*App).runAdd,
	"rm":         (*App).runRemove,
	"list":       (*App).runList,
	"categories": (*App).runCategories,
	"currency":   (*App).runCurrency,
	"summary":    (*App).runSummary,
	"daily":      (*App).runDaily,
	"period":     (*App).runPeriod,
	"connect":    (*App).runConnect,
	"disconnect": (*App).runDisconnect,
	"push":       (*App).runPush,
	"pull":       (*App).runPull,
	"watch":      (*App).runWatch,
	"export":     (*App).runExport,
	"parse":      (*App).runParse,
	"serve":      (*App).runServe,
}

// Run executes one subcommand against the wired ledger, writing results to out.
func (a *App) Run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w\n%s", ErrUnknownCommand, Usage)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w %q\n%s", ErrUnknownCommand, args[0], Usage)
	}
	return cmd(a, ctx, args[1:], out)
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func (a *App) runAdd(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("add", out)
	amount := fs.String("amount", "", "amount, e.g. 12.50")
	kind := fs.String("type", string(core.Expense), "expense or income")
	category := fs.String("category", "", "category name")
	desc := fs.String("desc", "", "description")
	date := fs.String("date", "", "event day, YYYY-MM-DD (default today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cents, err := core.ParseDecimalToCents(*amount)
	if err != nil {
		return err
	}
	day := core.DateOf(a.now())
	if strings.TrimSpace(*date) != "" {
		if day, err = core.ParseDate(*date); err != nil {
			return err
		}
	}
	k := core.Kind(strings.ToLower(strings.TrimSpace(*kind)))
	name := strings.TrimSpace(*category)
	for _, c := range a.Ledger.ListCategories() {
		if c.SameAs(core.Category{Name: name, Kind: k}) {
			name = c.Name
			break
		}
	}

	txs, err := a.Ledger.AddTransaction(ctx, core.Transaction{
		Amount:      core.Money{Cents: cents},
		Kind:        k,
		Category:    name,
		Description: strings.TrimSpace(*desc),
		Date:        day,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "added %s\n", txs[0].ID)
	return nil
}

func (a *App) runRemove(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: rm takes exactly one transaction id", core.ErrValidation)
	}
	if _, err := a.Ledger.RemoveTransaction(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(out, "removed %s\n", args[0])
	return nil
}

func (a *App) runList(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("list", out)
	limit := fs.Int("n", 0, "show at most n transactions (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	txs := a.Ledger.ListTransactions()
	if *limit > 0 && len(txs) > *limit {
		txs = txs[:*limit]
	}
	symbol := a.Ledger.Currency()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, t := range txs {
		amount := t.Amount
		if t.Kind == core.Expense {
			amount = core.Money{}.Sub(amount)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Date, t.Kind, t.Category, amount.Format(symbol), t.Description)
	}
	return tw.Flush()
}

func (a *App) runCategories(ctx context.Context, args []string, out io.Writer) error {
	if len(args) > 0 {
		switch args[0] {
		case "add":
			fs := newFlagSet("categories add", out)
			name := fs.String("name", "", "category name")
			kind := fs.String("type", string(core.Expense), "expense or income")
			color := fs.String("color", "#64748b", "display color")
			if err := fs.Parse(args[1:]); err != nil {
				return err
			}
			cats, err := a.Ledger.AddCategory(ctx, core.Category{
				Name:  strings.TrimSpace(*name),
				Kind:  core.Kind(strings.ToLower(strings.TrimSpace(*kind))),
				Color: *color,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "categories: %d\n", len(cats))
			return nil
		case "rm":
			if len(args) != 2 {
				return fmt.Errorf("%w: categories rm takes exactly one id", core.ErrValidation)
			}
			if _, err := a.Ledger.RemoveCategory(ctx, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(out, "removed %s\n", args[1])
			return nil
		default:
			return fmt.Errorf("%w: categories %q", ErrUnknownCommand, args[0])
		}
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tCOLOR")
	for _, c := range a.Ledger.ListCategories() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Kind, c.Color)
	}
	return tw.Flush()
}

func (a *App) runCurrency(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(out, a.Ledger.Currency())
		return nil
	}
	if err := a.Ledger.SetCurrency(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(out, "currency set to %s\n", a.Ledger.Currency())
	return nil
}

func (a *App) reports() *aggregate.Engine {
	return aggregate.NewEngine(a.Ledger)
}

func (a *App) runSummary(ctx context.Context, args []string, out io.Writer) error {
	s := a.reports().Summary()
	symbol := a.Ledger.Currency()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "income\t%s\n", s.Income.Format(symbol))
	fmt.Fprintf(tw, "expense\t%s\n", s.Expense.Format(symbol))
	fmt.Fprintf(tw, "balance\t%s\n", s.Net.Format(symbol))
	return tw.Flush()
}

func (a *App) runDaily(ctx context.Context, args []string, out io.Writer) error {
	d := a.reports().Daily(a.now())
	symbol := a.Ledger.Currency()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tDATE\tTOTAL\tBY CATEGORY")
	for _, day := range d.Days {
		parts := make([]string, 0, len(d.Keys))
		for _, k := range d.Keys {
			if m, ok := day.ByCategory[k]; ok {
				parts = append(parts, k+"="+m.String())
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", day.Label, day.Date, day.Total.Format(symbol), strings.Join(parts, " "))
	}
	return tw.Flush()
}

func (a *App) runPeriod(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("period", out)
	view := fs.String("view", string(core.PeriodWeek), "week or month")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rows, err := a.reports().Period(core.Period(strings.ToLower(*view)), a.now())
	if err != nil {
		return err
	}
	symbol := a.Ledger.Currency()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r.Name, r.Amount.Format(symbol))
	}
	return tw.Flush()
}

func (a *App) printSync(out io.Writer, cfg core.SyncConfig) {
	state := "disconnected"
	if cfg.Connected {
		state = "connected"
	}
	fmt.Fprintf(out, "%s file=%s", state, cfg.FileName)
	if cfg.FileID != "" {
		fmt.Fprintf(out, " id=%s", cfg.FileID)
	}
	if cfg.LastSync != nil {
		fmt.Fprintf(out, " last_sync=%s", cfg.LastSync.Format(time.RFC3339))
	}
	fmt.Fprintln(out)
}

func (a *App) runConnect(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("connect", out)
	cred := fs.String("credential", "", "token file path or inline token JSON")
	file := fs.String("file", "", "remote document name (default: current)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*cred) == "" {
		return fmt.Errorf("%w: -credential is required", core.ErrValidation)
	}
	cfg, err := a.Ledger.Connect(ctx, core.Credential(strings.TrimSpace(*cred)), *file)
	if err != nil {
		return err
	}
	a.printSync(out, cfg)
	return nil
}

func (a *App) runDisconnect(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := a.Ledger.Disconnect(ctx)
	if err != nil {
		return err
	}
	a.printSync(out, cfg)
	return nil
}

func (a *App) runPush(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := a.Ledger.SyncNow(ctx)
	if err != nil {
		return err
	}
	a.printSync(out, cfg)
	return nil
}

func (a *App) runPull(ctx context.Context, args []string, out io.Writer) error {
	snap, err := a.Ledger.ForcePull(ctx)
	if errors.Is(err, core.ErrNotFound) {
		fmt.Fprintf(out, "nothing to pull yet (%s)\n", a.Ledger.SyncConfig().FileName)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "pulled %d transactions, %d categories\n", len(snap.Transactions), len(snap.Categories))
	return nil
}

func (a *App) runWatch(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("watch", out)
	hint := fs.Bool("pull", false, "suggest saldo pull when another device pushes to the synced file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if a.Backend.Notifier == nil {
		return fmt.Errorf("watch: no broker configured, set SALDO_AMQP_URL")
	}

	err := a.Backend.Notifier.Consume(ctx, func(ctx context.Context, msg *notify.SnapshotPushedMessage) error {
		a.reportPush(msg, *hint, out)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// reportPush prints one push notification. Pulling replaces local records,
// so watch only points at `saldo pull` and never pulls by itself.
func (a *App) reportPush(msg *notify.SnapshotPushedMessage, hint bool, out io.Writer) {
	fmt.Fprintf(out, "%s %s pushed %s (%d transactions, %d categories)\n",
		msg.Timestamp.Format(time.RFC3339), msg.Origin, msg.FileName, msg.Transactions, msg.Categories)
	if !hint || msg.Origin == a.Config.DeviceName || msg.FileName != a.Ledger.SyncConfig().FileName {
		return
	}
	fmt.Fprintln(out, "remote has newer records; run `saldo pull` to replace local ones")
}

func (a *App) runExport(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("export", out)
	what := fs.String("what", "transactions", "transactions or categories")
	dest := fs.String("o", "", "output file (default name in the current directory, - for stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		name  string
		write func(io.Writer) error
	)
	switch *what {
	case "transactions":
		name = export.CSVFileName(*dest)
		txs := a.Ledger.ListTransactions()
		write = func(w io.Writer) error { return export.TransactionsCSV(w, txs) }
	case "categories":
		name = export.JSONFileName(*dest)
		cats := a.Ledger.ListCategories()
		write = func(w io.Writer) error { return export.CategoriesJSON(w, cats) }
	default:
		return fmt.Errorf("%w: export -what must be transactions or categories", core.ErrValidation)
	}

	if *dest == "-" {
		return write(out)
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	fmt.Fprintf(out, "wrote %s\n", name)
	return nil
}

func (a *App) runParse(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("parse", out)
	save := fs.Bool("save", false, "record the transaction when every field resolved")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		return fmt.Errorf("%w: nothing to parse", core.ErrValidation)
	}

	p, err := a.newParser(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, parseTimeout)
	defer cancel()

	now := a.now()
	cats := a.Ledger.ListCategories()
	draft, err := p.Parse(ctx, text, cats, now)
	if err != nil {
		a.Logger.WarnContext(ctx, "Parser failed, returning empty form", log.FieldOperation, log.OpParse, log.FieldError, err)
	}
	form := parser.Normalize(draft, now, cats)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(form); err != nil {
		return err
	}
	if !*save {
		return nil
	}
	if !form.Complete() {
		return fmt.Errorf("%w: amount or category could not be resolved", core.ErrValidation)
	}
	txs, err := a.Ledger.AddTransaction(ctx, form.Transaction())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "added %s\n", txs[0].ID)
	return nil
}

func (a *App) runServe(ctx context.Context, args []string, out io.Writer) error {
	opts := []apphttp.Option{
		apphttp.WithLogger(a.Logger),
		apphttp.WithClock(a.now),
	}
	if p, err := a.newParser(ctx); err != nil {
		a.Logger.Warn("Free-text drafts disabled", log.FieldOperation, log.OpParse, log.FieldError, err)
	} else {
		opts = append(opts, apphttp.WithParser(p))
	}

	srv := apphttp.NewServer(":"+a.Config.Port, a.Ledger, opts...)
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("Starting saldo server", "port", a.Config.Port, "backend", a.Config.DataBackend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	a.Logger.Info("Server stopped gracefully")
	return nil
}
