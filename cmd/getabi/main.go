package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/portdeveloper/get-abi-2000/etherscan"
)

var (
	flagAPIURL     string
	flagAPIKey     string
	flagRPS        float64
	flagSignatures bool
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "getabi <address> [address...]",
	Short: "Fetch verified contract ABIs from an etherscan-compatible explorer",
	Long: `getabi fetches the ABI of one or more contracts from an etherscan-compatible
explorer, validates its structure and prints it as JSON.

Addresses are fetched concurrently but requests are throttled to --rps per second.
Contracts without verified source are reported and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level := zerolog.InfoLevel
		if flagVerbose {
			level = zerolog.DebugLevel
		}
		log := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(level).With().Timestamp().Logger()

		client, err := etherscan.NewClient(etherscan.Config{
			APIURL:               flagAPIURL,
			APIKey:               flagAPIKey,
			MaxRequestsPerSecond: flagRPS,
			Logger:               &log,
		})
		if err != nil {
			return err
		}
		return run(cmd.Context(), client, args, flagSignatures, cmd.OutOrStdout(), log)
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagAPIURL, "api-url", "https://api.etherscan.io/api", "Explorer API endpoint")
	rootCmd.Flags().StringVar(&flagAPIKey, "api-key", os.Getenv("ETHERSCAN_API_KEY"), "Explorer API key (defaults to $ETHERSCAN_API_KEY)")
	rootCmd.Flags().Float64Var(&flagRPS, "rps", etherscan.DefaultMaxRequestsPerSecond, "Maximum explorer requests per second")
	rootCmd.Flags().BoolVarP(&flagSignatures, "signatures", "s", false, "Print method and event signatures instead of the ABI")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose output")
}

type abiFetcher interface {
	GetABI(ctx context.Context, address string) (etherscan.ContractABI, bool, error)
}

func run(ctx context.Context, client abiFetcher, addresses []string, printSignatures bool, out io.Writer, log zerolog.Logger) error {
	results := make([]etherscan.ContractABI, len(addresses))

	g, ctx := errgroup.WithContext(ctx)
	for i, address := range addresses {
		i, address := i, address
		g.Go(func() error {
			contractABI, found, err := client.GetABI(ctx, address)
			if err != nil {
				return fmt.Errorf("%s: %w", address, err)
			}
			if !found {
				log.Warn().Str("address", address).Msg("contract source code not verified")
				return nil
			}
			results[i] = contractABI
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, address := range addresses {
		if results[i] == nil {
			continue
		}
		fmt.Fprintf(out, "# %s\n", address)
		if printSignatures {
			sigs, skipped, err := signatures(results[i])
			if err != nil {
				return fmt.Errorf("%s: %w", address, err)
			}
			for _, name := range skipped {
				log.Warn().Str("address", address).Str("member", name).Msg("skipping member with untyped parameters")
			}
			for _, sig := range sigs {
				fmt.Fprintln(out, sig)
			}
			continue
		}
		encoded, err := json.MarshalIndent(results[i], "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(encoded))
	}
	return nil
}

// signatures lists the canonical signatures of every method and event.
// Members with an untyped parameter have no canonical signature; their
// names are returned as skipped.
func signatures(contractABI etherscan.ContractABI) ([]string, []string, error) {
	var typed etherscan.ContractABI
	var skipped []string
	for _, member := range contractABI {
		if !allTyped(member.Inputs) || !allTyped(member.Outputs) {
			skipped = append(skipped, member.Type+" "+member.Name)
			continue
		}
		typed = append(typed, member)
	}

	encoded, err := json.Marshal(typed)
	if err != nil {
		return nil, nil, err
	}
	parsed, err := abi.JSON(bytes.NewReader(encoded))
	if err != nil {
		return nil, nil, err
	}

	var sigs []string
	for _, method := range parsed.Methods {
		sigs = append(sigs, "function "+method.Sig)
	}
	for _, event := range parsed.Events {
		sigs = append(sigs, "event "+event.Sig)
	}
	sort.Strings(sigs)
	return sigs, skipped, nil
}

func allTyped(params []etherscan.Parameter) bool {
	for _, p := range params {
		if p.Type == "" || !allTyped(p.Components) {
			return false
		}
	}
	return true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
