package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/quantbao/stockchat-backend/internal/chat"
	"github.com/quantbao/stockchat-backend/internal/config"
	"github.com/quantbao/stockchat-backend/internal/format"
	"github.com/quantbao/stockchat-backend/internal/history"
	"github.com/quantbao/stockchat-backend/internal/httputil"
	"github.com/quantbao/stockchat-backend/internal/llm"
	"github.com/quantbao/stockchat-backend/internal/models"
	"github.com/quantbao/stockchat-backend/internal/quotes"
	"github.com/quantbao/stockchat-backend/internal/storage"
	"github.com/quantbao/stockchat-backend/internal/symbols"
)

const banner = `
╔══════════════════════════════════════╗
║      Stock Chat Assistant v0.3       ║
║   输入 /help 查看命令, /quit 退出    ║
╚══════════════════════════════════════╝
`

// consoleRenderer prints assistant and informational turns. User turns
// are skipped: the terminal already shows what was typed.
type consoleRenderer struct{}

func (consoleRenderer) RenderTurn(turn models.Turn) {
	if turn.Role == models.RoleUser {
		return
	}
	fmt.Printf("\n助手> %s\n\n", turn.Content)
}

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateChat(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	cfg.PrintChat()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[STORE] Open failed: %v\n", err)
		os.Exit(1)
	}
	defer kv.Close()

	store := history.NewStore(kv)
	store.Load(ctx)
	if n := len(store.All()); n > 0 {
		fmt.Printf("[STORE] Restored %d turns\n", n)
	}

	table, err := loadTable(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[SYMBOLS] Load failed: %v\n", err)
		os.Exit(1)
	}

	session := chat.NewSession(store, table, buildFetcher(cfg), buildModel(cfg), consoleRenderer{})

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for {
		fmt.Print("你> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if !runCommand(ctx, line, session, store) {
				break
			}
			continue
		}
		session.Submit(ctx, line)

		select {
		case <-ctx.Done():
			fmt.Println("\n再见!")
			return
		default:
		}
	}
	fmt.Println("再见!")
}

// runCommand handles slash commands; it reports whether the loop
// should continue.
func runCommand(ctx context.Context, line string, session *chat.Session, store *history.Store) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "/quit", "/exit":
		return false
	case "/help":
		fmt.Println("命令: /clear 清空历史 | /reset 重置当前股票 | /theme [名称] 主题 | /chart 近期走势 | /quit 退出")
	case "/clear":
		if err := store.Clear(ctx); err != nil {
			fmt.Printf("[STORE] Clear failed: %v\n", err)
		} else {
			fmt.Println("历史已清空")
		}
	case "/reset":
		session.Reset()
		fmt.Println("当前股票已重置")
	case "/theme":
		if arg == "" {
			fmt.Printf("当前主题: %s\n", store.Theme(ctx, "light"))
		} else if err := store.SetTheme(ctx, arg); err != nil {
			fmt.Printf("[STORE] Theme save failed: %v\n", err)
		} else {
			fmt.Printf("主题已切换: %s\n", arg)
		}
	case "/chart":
		printChart(session)
	default:
		fmt.Printf("未知命令: %s\n", cmd)
	}
	return true
}

func printChart(session *chat.Session) {
	series := session.Series()
	if series == nil || len(series.Candles) == 0 {
		fmt.Println("暂无走势数据，请先查询一只股票")
		return
	}
	name := series.DisplayName
	if name == "" {
		name = series.Symbol
	}
	fmt.Printf("📈 %s 近期走势:\n", name)
	start := 0
	if len(series.Candles) > 10 {
		start = len(series.Candles) - 10
	}
	for _, c := range series.Candles[start:] {
		fmt.Printf("  %s  收盘 %s\n", c.Timestamp.Format("2006-01-02"), format.Number(c.Close))
	}
}

func openStore(cfg *config.Config) (storage.KV, error) {
	switch cfg.StorageBackend {
	case "memory":
		return storage.NewMemory(), nil
	case "sqlite":
		return storage.OpenSQLite(cfg.SQLitePath)
	case "postgres":
		return storage.OpenPostgres(cfg.DSN())
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func loadTable(cfg *config.Config) (*symbols.Table, error) {
	if cfg.SymbolsFile == "" {
		return symbols.NewTable(), nil
	}
	return symbols.LoadTable(cfg.SymbolsFile)
}

func buildFetcher(cfg *config.Config) *quotes.Fetcher {
	retry := httputil.SingleShot
	if cfg.QuoteRetryAttempts > 1 {
		retry = httputil.RetryConfig{
			MaxAttempts: cfg.QuoteRetryAttempts,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    5 * time.Second,
		}
	}
	primary := quotes.NewYahooClient(cfg.QuoteBaseURL, retry)
	var secondary *quotes.AlphaVantageClient
	if cfg.AlphaVantageAPIKey != "" {
		secondary = quotes.NewAlphaVantageClient(cfg.AlphaVantageBaseURL, cfg.AlphaVantageAPIKey, retry)
	}
	return quotes.NewFetcher(primary, secondary)
}

func buildModel(cfg *config.Config) *llm.Client {
	return llm.NewClient(cfg.ChatAPIEndpoint, cfg.ChatAPIKey, llm.Options{
		Model:        cfg.ChatModel,
		MaxTokens:    cfg.ChatMaxTokens,
		Temperature:  cfg.ChatTemperature,
		SystemPrompt: cfg.ChatSystemPrompt,
	})
}
