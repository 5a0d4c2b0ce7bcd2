// Package main 存储初始化工具（建表与示例数据）
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"seo-ai-api/internal/config"
	"seo-ai-api/internal/domain/entity"
	"seo-ai-api/internal/domain/repository"
	"seo-ai-api/internal/wire"
)

var forceSeed bool

var rootCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Migrate the PostgreSQL schema and seed a sample item",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, boot *wire.Bootstrap) error {
			if err := migrate(ctx, boot); err != nil {
				return err
			}
			return seed(ctx, boot)
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), migrate)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert a sample item when the store is empty",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), seed)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&forceSeed, "force", false, "insert even when items already exist")
	rootCmd.AddCommand(migrateCmd, seedCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withStore 初始化存储并执行 fn
func withStore(ctx context.Context, fn func(context.Context, *wire.Bootstrap) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	boot, cleanup, err := wire.InitializeBootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize data layer: %w", err)
	}
	defer cleanup()
	if boot.PgClient == nil {
		return fmt.Errorf("bootstrap requires store driver postgres, got %q", cfg.Store.Driver)
	}
	return fn(ctx, boot)
}

func migrate(ctx context.Context, boot *wire.Bootstrap) error {
	if err := boot.PgClient.AutoMigrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	fmt.Println("Schema migrated.")
	return nil
}

func seed(ctx context.Context, boot *wire.Bootstrap) error {
	if !forceSeed {
		existing, err := boot.Items.List(ctx, nil, repository.NewPagination(1, 1))
		if err != nil {
			return fmt.Errorf("failed to check existing items: %w", err)
		}
		if existing.Total > 0 {
			fmt.Printf("Store already has %d items, skipping seed.\n", existing.Total)
			return nil
		}
	}

	item := &entity.Item{
		Type:   "post",
		Status: "draft",
		Title:  "Hello SEO",
		Body:   "<p>Sample article used to verify the generation pipeline.</p>",
		Slug:   "hello-seo",
	}
	if err := boot.Items.Create(ctx, item); err != nil {
		return fmt.Errorf("failed to seed sample item: %w", err)
	}
	fmt.Printf("Sample item created with ID: %d\n", item.ID)
	return nil
}
