package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bundlescope/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the parsed class record cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// clearer is implemented by the backends that can drop all entries.
type clearer interface {
	Clear(ctx context.Context) (int, error)
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached class records",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if c.cacheURL == "" {
				dir, err := cacheDir()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					printInfo(w, "Cache is empty")
					return nil
				}
			}

			saved := c.noCache
			c.noCache = false
			backend, err := c.openCache(cmd.Context())
			c.noCache = saved
			if err != nil {
				return err
			}
			defer backend.Close()

			cl, ok := backend.(clearer)
			if !ok {
				return fmt.Errorf("cache backend %T cannot be cleared", backend)
			}
			n, err := cl.Clear(cmd.Context())
			if err != nil {
				return err
			}
			printSuccess(w, "Cleared %d cached entries", n)
			switch b := backend.(type) {
			case *cache.FileCache:
				printDetail(w, "Directory: %s", b.Dir())
			case *cache.RedisCache:
				printDetail(w, "Namespace: %s", cache.RedisNamespace)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory, or the redacted cache URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cacheURL != "" {
				u, err := url.Parse(c.cacheURL)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), u.Redacted())
				return nil
			}
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
