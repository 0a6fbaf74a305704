// Package main is the entry point for faultline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"faultline/internal/capture"
	"faultline/internal/catalog"
	"faultline/internal/config"
	"faultline/internal/driver"
	"faultline/internal/events"
	"faultline/internal/extapi"
	"faultline/internal/invoke"
	"faultline/internal/logger"
	"faultline/internal/server"
	"faultline/internal/store"
	"faultline/internal/tasks"
)

var (
	version = "dev"
)

func main() {
	// フラグ定義
	var (
		configFile  = flag.String("config", "", "設定ファイルパス (YAML/JSON)")
		presetName  = flag.String("preset", "", "プリセット名 (load, stress, production, quick)")
		workers     = flag.Int("workers", 0, "並行ワーカー数")
		errorCount  = flag.Uint64("errors", 0, "生成するイベント数の上限")
		duration    = flag.Duration("duration", 0, "実行時間の上限 (例: 10s, 1m)")
		stress      = flag.Bool("stress", false, "ストレスモード（待機なし・障害比率を増加）")
		seed        = flag.Int64("seed", 0, "乱数シード（0で時刻ベース）")
		target      = flag.String("target", "http://localhost:8080", "対象デモアプリのURL")
		localMode   = flag.Bool("local", false, "サーバーなしでプロセス内実行")
		serverMode  = flag.Bool("server", false, "デモアプリサーバーモードで起動")
		serverAddr  = flag.String("addr", ":8080", "サーバーアドレス (例: :8080)")
		dbPath      = flag.String("db", "", "SQLiteデータベースパス（空でインメモリストア）")
		listPresets = flag.Bool("list-presets", false, "利用可能なプリセットを表示")
		showVersion = flag.Bool("version", false, "バージョンを表示")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `faultline - Synthetic Fault Workload Driver

Usage:
  faultline [options]

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # デモアプリサーバーを起動
  faultline --server

  # 起動中のサーバーに対してワークロードを実行
  faultline --workers 5 --errors 10

  # サーバーなしでプロセス内実行
  faultline --local --errors 50

  # ストレスモードで30秒
  faultline --local --stress --duration 30s

  # プリセットを実行
  faultline --local --preset quick

  # 設定ファイルから実行
  faultline --config workload.yaml
`)
	}

	flag.Parse()

	// バージョン表示
	if *showVersion {
		fmt.Printf("faultline version %s\n", version)
		return
	}

	// プリセット一覧表示
	if *listPresets {
		printPresets()
		return
	}

	// 設定ファイルの読み込み（サーバー設定にも使うため先に行う）
	var fileConfig *config.FileConfig
	if *configFile != "" {
		fc, err := config.LoadFile(*configFile)
		if err != nil {
			logger.Error("", "設定ファイル読み込みエラー: %v", err)
			os.Exit(1)
		}
		if err := fc.Validate(); err != nil {
			logger.Error("", "設定検証エラー: %v", err)
			os.Exit(1)
		}
		fileConfig = fc
	}

	// デモアプリサーバーモード
	if *serverMode {
		if err := runServer(fileConfig, *serverAddr, *dbPath); err != nil {
			logger.Error("", "サーバーエラー: %v", err)
			os.Exit(1)
		}
		return
	}

	// ドライバ設定の決定
	driverConfig, err := buildDriverConfig(fileConfig, *presetName, *workers, *errorCount, *duration, *stress, *seed)
	if err != nil {
		logger.Error("", "設定エラー: %v", err)
		os.Exit(1)
	}

	// シナリオカタログの決定
	cat, err := buildCatalog(fileConfig, driverConfig.StressMode)
	if err != nil {
		logger.Error("", "カタログ構築エラー: %v", err)
		os.Exit(1)
	}

	// ワークロード実行
	if err := runWorkload(fileConfig, driverConfig, cat, *target, *localMode); err != nil {
		logger.Error("", "実行エラー: %v", err)
		os.Exit(1)
	}
}

// buildDriverConfig はドライバ設定を構築する
// 優先順位: 設定ファイル > プリセット > デフォルト、フラグは常にオーバーライド
func buildDriverConfig(
	fileConfig *config.FileConfig, presetName string,
	workers int, errorCount uint64, duration time.Duration,
	stress bool, seed int64,
) (driver.Config, error) {
	var cfg driver.Config

	switch {
	case fileConfig != nil:
		c, err := fileConfig.ToDriverConfig()
		if err != nil {
			return cfg, fmt.Errorf("設定変換エラー: %w", err)
		}
		cfg = c
	case presetName != "":
		preset, ok := driver.GetPreset(presetName)
		if !ok {
			return cfg, fmt.Errorf("不明なプリセット: %s (利用可能: %v)", presetName, driver.ListPresets())
		}
		cfg = preset
	default:
		cfg = driver.DefaultConfig()
	}

	// フラグでオーバーライド
	if workers > 0 {
		cfg.Workers = workers
	}
	if errorCount > 0 {
		cfg.RequestsLimit = errorCount
	}
	if duration > 0 {
		cfg.Duration = duration
	}
	if stress {
		cfg.StressMode = true
	}
	if seed != 0 {
		cfg.Seed = seed
	}

	return cfg, nil
}

// buildCatalog はシナリオカタログを構築する
func buildCatalog(fileConfig *config.FileConfig, stress bool) (*catalog.Catalog, error) {
	if fileConfig != nil {
		return fileConfig.ToCatalog()
	}
	if stress {
		return catalog.New(catalog.Stress())
	}
	return catalog.New(catalog.Default())
}

// runWorkload はワークロードドライバを実行する
func runWorkload(fileConfig *config.FileConfig, cfg driver.Config, cat *catalog.Catalog, target string, local bool) error {
	fmt.Println("faultline - Synthetic Fault Workload Driver")
	fmt.Println("===========================================")
	fmt.Printf("Run: %s\n", cfg.Name)
	fmt.Printf("Workers: %d, Limit: %d, Duration: %v\n", cfg.Workers, cfg.RequestsLimit, cfg.Duration)
	fmt.Printf("Stress: %v, Scenarios: %d\n", cfg.StressMode, cat.Len())
	fmt.Println("===========================================")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n中断シグナルを受信、実行を終了中...")
		cancel()
	}()

	invoker, err := buildInvoker(ctx, fileConfig, target, local)
	if err != nil {
		return err
	}

	d, err := driver.New(cat, cfg, invoker.Invoke)
	if err != nil {
		return err
	}

	summary, err := d.Run(ctx)
	if err != nil {
		return err
	}

	// 中断時も部分結果のレポートを必ず出力する
	fmt.Println(summary.Report())

	return nil
}

// buildInvoker は実行層を構築する
// HTTPモードでは実行前に到達性を確認し、失敗なら起動しない
func buildInvoker(ctx context.Context, fileConfig *config.FileConfig, target string, local bool) (invoke.Invoker, error) {
	if fileConfig != nil {
		if fileConfig.Target.Local {
			local = true
		}
		if fileConfig.Target.URL != "" {
			target = fileConfig.Target.URL
		}
	}

	if local {
		s := store.NewMemory(store.DefaultFaultConfig())
		ext := extapi.New(extapi.DefaultConfig())
		hub := capture.NewHub(capture.DefaultConfig(), nil)
		return invoke.NewLocal(s, ext, hub), nil
	}

	var timeout time.Duration
	if fileConfig != nil {
		t, err := fileConfig.TargetTimeout()
		if err != nil {
			return nil, err
		}
		timeout = t
	}

	inv := invoke.NewHTTP(target, timeout)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := inv.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("ターゲット到達性チェック失敗: %w (--server で起動するか --local を使用)", err)
	}

	return inv, nil
}

// runServer はデモアプリサーバーを起動する
func runServer(fileConfig *config.FileConfig, addr, dbPath string) error {
	fmt.Println("faultline - Demo Application Server")
	fmt.Println("===================================")
	fmt.Printf("Starting server on http://%s\n", addr)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n中断シグナルを受信、サーバーを終了中...")
		cancel()
	}()

	serverConfig := server.DefaultConfig()
	if fileConfig != nil {
		serverConfig = fileConfig.ToServerConfig()
		if fileConfig.Server.DB != "" && dbPath == "" {
			dbPath = fileConfig.Server.DB
		}
	}
	serverConfig.Addr = addr

	// ストアの選択: --db指定でSQLite、なければインメモリ
	var userStore store.Store
	if dbPath != "" {
		s, err := store.NewSQLite(dbPath, store.DefaultFaultConfig())
		if err != nil {
			return fmt.Errorf("SQLiteストア初期化エラー: %w", err)
		}
		userStore = s
	} else {
		userStore = store.NewMemory(store.DefaultFaultConfig())
	}
	defer userStore.Close()

	bus := events.NewBus()
	defer bus.Close()

	hub := capture.NewHub(capture.DefaultConfig(), bus)

	manager := tasks.NewManager(0, bus)
	manager.Run(ctx)
	defer manager.Shutdown()

	srv := server.New(serverConfig, userStore, extapi.New(extapi.DefaultConfig()), manager, hub, bus)
	return srv.Start(ctx)
}

// printPresets は利用可能なプリセットを表示する
func printPresets() {
	fmt.Println("利用可能なプリセット:")
	fmt.Println()

	for _, name := range driver.ListPresets() {
		preset, _ := driver.GetPreset(name)
		fmt.Printf("  %-12s %s\n", name, preset.Description)
	}

	fmt.Println()
	fmt.Println("使用例: faultline --local --preset quick")
}
