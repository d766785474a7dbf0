/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pgedge-text2sql/internal/config"
	"pgedge-text2sql/internal/database"
	"pgedge-text2sql/internal/embedding"
	"pgedge-text2sql/internal/llm"
	"pgedge-text2sql/internal/logging"
	"pgedge-text2sql/internal/pipeline"
	"pgedge-text2sql/internal/repl"
	"pgedge-text2sql/internal/schema"
	"pgedge-text2sql/internal/tsv"
	"pgedge-text2sql/internal/vectorstore"
)

// Version is the agent version, overridable at build time with
// -ldflags "-X main.Version=..."
var Version = "0.1.0"

var (
	configFile     string
	configFileSet  bool
	schemaFileFlag string
	topKFlag       int
	llmProvider    string
	storeBackend   string

	introspectSchema string
	watchSchema      bool
	executeQuery     bool
)

var rootCmd = &cobra.Command{
	Use:   "pgedge-text2sql",
	Short: "pgEdge Text-to-SQL Agent - Ask questions about your PostgreSQL data",
	Long: `pgedge-text2sql turns natural-language questions into PostgreSQL queries.

It indexes your database schema as vector embeddings, retrieves the schema
chunks most relevant to each question, and asks a language model (Ollama,
Groq or Hugging Face) to write SQL grounded in that context. Generated
statements only execute when they are read-only.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init()
		configFileSet = cmd.Flags().Changed("config")
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index the database schema into the vector store",
	Long: `ingest flattens the schema into chunks, embeds them and stores the
result in the vector store. The schema comes from a JSON file
(--file or schema_file in the config) or live from the target
database (--introspect). With --watch the schema file is re-ingested
whenever it changes.`,
	RunE: runIngest,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the schema index",
	RunE:  runClear,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question and print the generated SQL",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive question session",
	RunE:  runRepl,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pgedge-text2sql %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c",
		"pgedge-text2sql.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&schemaFileFlag, "schema-file", "",
		"Path to JSON schema description (overrides config file)")
	rootCmd.PersistentFlags().StringVar(&llmProvider, "llm-provider", "",
		"Generation backend: ollama, groq or huggingface (overrides config file)")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "",
		"Vector store backend: postgres or sqlite (overrides config file)")

	ingestCmd.Flags().StringVar(&introspectSchema, "introspect", "",
		"Introspect the named schema from the target database instead of reading a file")
	ingestCmd.Flags().BoolVar(&watchSchema, "watch", false,
		"Keep running and re-ingest when the schema file changes")

	askCmd.Flags().IntVarP(&topKFlag, "top-k", "k", 0,
		"Schema chunks retrieved per question (bounds 3..15)")
	askCmd.Flags().BoolVarP(&executeQuery, "execute", "x", false,
		"Run the generated SQL against the target database when it is read-only")

	replCmd.Flags().IntVarP(&topKFlag, "top-k", "k", 0,
		"Schema chunks retrieved per question (bounds 3..15)")

	rootCmd.AddCommand(ingestCmd, clearCmd, askCmd, replCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := config.CLIFlags{
		ConfigFile:      configFile,
		ConfigFileSet:   configFileSet,
		SchemaFile:      schemaFileFlag,
		SchemaFileSet:   cmd.Flags().Changed("schema-file") || rootCmd.PersistentFlags().Changed("schema-file"),
		LLMProvider:     llmProvider,
		LLMProviderSet:  rootCmd.PersistentFlags().Changed("llm-provider"),
		StoreBackend:    storeBackend,
		StoreBackendSet: rootCmd.PersistentFlags().Changed("store"),
	}
	if cmd.Flags().Changed("top-k") {
		flags.TopK = topKFlag
		flags.TopKSet = true
	}
	return config.LoadConfig(configFile, flags)
}

// openStore builds the embedding provider and the configured vector store
// backend, with the storage schema ensured
func openStore(ctx context.Context, cfg *config.Config) (vectorstore.Store, error) {
	provider, err := embedding.NewProvider(embedding.Config{
		Provider:     cfg.Embedding.Provider,
		Model:        cfg.Embedding.Model,
		OllamaURL:    cfg.Embedding.OllamaURL,
		OpenAIAPIKey: cfg.Embedding.OpenAIAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	var store vectorstore.Store
	switch strings.ToLower(cfg.VectorStore.Backend) {
	case "sqlite":
		store, err = vectorstore.NewSQLiteStore(cfg.VectorStore.SQLitePath, provider, cfg.VectorStore.Dimensions)
	default:
		var pool *pgxpool.Pool
		pool, err = pgxpool.New(ctx, cfg.VectorDatabase.BuildConnectionString())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to vector database: %w", err)
		}
		store, err = vectorstore.NewPostgresStore(pool, provider, cfg.VectorStore.Dimensions)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	if err := store.Reset(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to prepare vector store: %w", err)
	}
	return store, nil
}

// connectTarget connects to the target database, prompting for a password
// when one is needed and the session is interactive
func connectTarget(ctx context.Context, cfg *config.Config) (*database.Client, error) {
	dbCfg := cfg.TargetDatabase
	if dbCfg.User != "" && dbCfg.Password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := repl.PromptPassword(fmt.Sprintf("Password for %s@%s: ", dbCfg.User, dbCfg.Host))
		if err != nil {
			return nil, err
		}
		dbCfg.Password = password
	}

	client := database.NewClient(dbCfg.BuildConnectionString())
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to target database: %w", err)
	}
	return client, nil
}

// loadSchemaChunks produces chunks from the configured source: live
// introspection when schemaName is set, the JSON schema file otherwise
func loadSchemaChunks(ctx context.Context, cfg *config.Config, schemaName string) ([]schema.Chunk, error) {
	var (
		tables []schema.Table
		err    error
	)

	if schemaName != "" {
		client, cerr := connectTarget(ctx, cfg)
		if cerr != nil {
			return nil, cerr
		}
		defer client.Close()
		tables, err = schema.Introspect(ctx, client.Pool(), schemaName)
	} else {
		if cfg.SchemaFile == "" {
			return nil, fmt.Errorf("no schema source: set schema_file in the config, pass --schema-file, or use --introspect")
		}
		tables, err = schema.LoadFile(cfg.SchemaFile)
	}
	if err != nil {
		return nil, err
	}

	return schema.Flatten(tables), nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ingest := func(ctx context.Context) (int, error) {
		chunks, err := loadSchemaChunks(ctx, cfg, introspectSchema)
		if err != nil {
			return 0, err
		}
		if err := store.Clear(ctx); err != nil {
			return 0, err
		}
		return store.Ingest(ctx, chunks)
	}

	n, err := ingest(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Ingested %d schema chunks.\n", n)

	if !watchSchema {
		return nil
	}
	if introspectSchema != "" {
		return fmt.Errorf("--watch requires a schema file, not --introspect")
	}

	watcher, err := schema.NewWatcher(cfg.SchemaFile, func() error {
		count, err := ingest(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Re-ingested %d schema chunks.\n", count)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to watch schema file: %w", err)
	}
	watcher.Start()
	defer watcher.Stop()

	fmt.Printf("Watching %s for changes. Ctrl+C to stop.\n", cfg.SchemaFile)
	<-ctx.Done()
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(ctx); err != nil {
		return err
	}
	fmt.Println("Schema index cleared.")
	return nil
}

// buildPipeline assembles the question-to-SQL pipeline from config
func buildPipeline(cfg *config.Config, store vectorstore.Store) (*pipeline.Pipeline, error) {
	client, err := llm.NewClient(llm.Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		OllamaURL:   cfg.LLM.OllamaURL,
		GroqAPIKey:  cfg.LLM.GroqAPIKey,
		GroqBaseURL: cfg.LLM.GroqBaseURL,
		HFAPIKey:    cfg.LLM.HFAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}
	return pipeline.New(store, client, cfg.Retrieval.TopK)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := buildPipeline(cfg, store)
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	answer, err := p.GenerateSQL(ctx, question)
	if err != nil {
		return err
	}

	fmt.Println(answer.SQL)

	if !answer.Executable {
		fmt.Fprintln(os.Stderr, "Generated SQL is not a read-only statement. Skipping execution for safety.")
		return nil
	}
	if !executeQuery {
		return nil
	}

	client, err := connectTarget(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := client.RunQuery(ctx, answer.SQL)
	if err != nil {
		return err
	}
	fmt.Println(tsv.FormatResults(result.Columns, result.Rows))
	return nil
}

func runRepl(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := buildPipeline(cfg, store)
	if err != nil {
		return err
	}

	session := &repl.Session{
		Generator:   p,
		Store:       store,
		HistoryFile: historyFilePath(),
	}

	// The target database is optional; without it the session still
	// generates and displays SQL
	if client, err := connectTarget(ctx, cfg); err == nil {
		defer client.Close()
		session.Executor = client
	} else {
		fmt.Fprintf(os.Stderr, "Target database unavailable, running in display-only mode: %v\n", err)
	}

	if cfg.SchemaFile != "" {
		session.Ingest = func(ctx context.Context) (int, error) {
			chunks, err := loadSchemaChunks(ctx, cfg, "")
			if err != nil {
				return 0, err
			}
			if err := store.Clear(ctx); err != nil {
				return 0, err
			}
			return store.Ingest(ctx, chunks)
		}
	}

	return session.Run(ctx)
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pgedge-text2sql_history")
}

