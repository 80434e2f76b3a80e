package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/platform-cfm/cfmstore/pkg/creds"
	"github.com/platform-cfm/cfmstore/pkg/csvio"
	"github.com/platform-cfm/cfmstore/pkg/logger"
	"github.com/platform-cfm/cfmstore/pkg/resource"
	_ "github.com/platform-cfm/cfmstore/pkg/resource/s3store"
)

var (
	logLevel      string
	logFormat     string
	requireRemote bool
)

func main() {
	root := &cobra.Command{
		Use:           "cfmstore",
		Short:         "Storage-transparent resource access for the chargeback toolchain",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(logLevel, logFormat)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (json, console)")
	root.PersistentFlags().BoolVar(&requireRemote, "require-remote", false, "fail instead of falling back to local-only mode")

	root.AddCommand(
		credsCmd(),
		listCmd(),
		countCmd(),
		deleteCmd(),
		getCmd(),
		putCmd(),
		fetchCmd(),
		sumCmd(),
	)

	if err := root.Execute(); err != nil {
		// A scheduled job only signals failure through its exit status.
		logger.Get().Fatal().Err(err).Msg("command failed")
	}
}

func prefixFlag(fs *pflag.FlagSet, prefix *string) {
	fs.StringVar(prefix, "prefix", "", "only names with this prefix (remote mode)")
}

func openStore(ctx context.Context) (*resource.Store, error) {
	return resource.New(ctx, resource.Options{
		Creds:  creds.Options{RequireRemote: requireRemote},
		Logger: *logger.Get(),
	})
}

func credsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "creds",
		Short: "Show the resolved credential source",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := creds.Resolve(creds.Options{
				RequireRemote: requireRemote,
				Logger:        *logger.Get(),
			})
			if err != nil {
				return err
			}

			fmt.Println("mode:", source.Mode())
			if credentials, ok := source.Credentials(); ok {
				fmt.Println("bucket:", credentials.Bucket)
				fmt.Println("access_key_id:", credentials.AccessKeyID)
				if credentials.EncryptionKeyID != "" {
					fmt.Println("encryption_key_id:", credentials.EncryptionKeyID)
				}
			}
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List resource names in the backing store",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			names, err := store.List(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
	prefixFlag(cmd.Flags(), &prefix)
	return cmd
}

func countCmd() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count matches on the first listing page (shallow)",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Count(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}
	prefixFlag(cmd.Flags(), &prefix)
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a resource from the remote store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			return store.Delete(cmd.Context(), args[0])
		},
	}
}

func getCmd() *cobra.Command {
	var remoteOnly bool
	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Read a resource and write its lines to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			var opts []resource.ReadOption
			if remoteOnly {
				opts = append(opts, resource.ForceRemote())
			}
			reader, err := store.OpenReader(cmd.Context(), args[0], opts...)
			if err != nil {
				return err
			}
			defer reader.Close()

			for reader.Scan() {
				fmt.Println(reader.Text())
			}
			return reader.Err()
		},
	}
	cmd.Flags().BoolVar(&remoteOnly, "remote-only", false, "bypass the local cache")
	return cmd
}

func putCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <name>",
		Short: "Write stdin to a resource through the backup/upload protocol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			writer, err := store.OpenWriter(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if _, err := io.Copy(writer, os.Stdin); err != nil {
				writer.Close(cmd.Context())
				return err
			}
			return writer.Close(cmd.Context())
		},
	}
}

func fetchCmd() *cobra.Command {
	var maxConcurrent int
	cmd := &cobra.Command{
		Use:   "fetch <name>...",
		Short: "Download several resources from the remote store in parallel",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			// Each name gets its own reader; the layer itself stays
			// single-writer per resource name.
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(maxConcurrent)
			for _, name := range args {
				g.Go(func() error {
					reader, err := store.OpenReader(ctx, name, resource.ForceRemote())
					if err != nil {
						return err
					}
					logger.Get().Info().Str("resource", name).Msg("fetched resource")
					return reader.Close()
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 3, "maximum parallel downloads")
	return cmd
}

func sumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sum <file> <column-spec>",
		Short: "Sum a CSV column, or the product of two columns (colA*colB)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			total, err := csvio.SumColumn(cmd.Context(), store, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("%.2f\n", total)
			return nil
		},
	}
}
