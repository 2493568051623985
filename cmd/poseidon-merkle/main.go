// poseidon-merkle - Poseidon hashing and Merkle tree CLI
//
// Hashes field elements, builds in-memory trees, and runs persistent
// LevelDB-backed builds. Parameters come from flags, falling back to the
// POSEIDON_MERKLE_ARITY / POSEIDON_FULL_ROUNDS / POSEIDON_PARTIAL_ROUNDS
// environment variables.
package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/colorfulnotion/poseidon-merkle/bigmerkle"
	"github.com/colorfulnotion/poseidon-merkle/merkle"
	"github.com/colorfulnotion/poseidon-merkle/poseidon"
	"github.com/colorfulnotion/poseidon-merkle/storage"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		arity         int
		fullRounds    int
		partialRounds int
		verbose       bool
	)

	params := func() (poseidon.Params, error) {
		p, err := poseidon.ParamsFromEnv()
		if err != nil {
			return poseidon.Params{}, err
		}
		if arity > 0 {
			p.Arity = arity
		}
		if fullRounds > 0 {
			p.FullRounds = fullRounds
		}
		if partialRounds >= 0 {
			p.PartialRounds = partialRounds
		}
		return p, p.Validate()
	}

	rootCmd := &cobra.Command{
		Use:   "poseidon-merkle",
		Short: "Poseidon hashing and fixed-arity Merkle trees",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log = log.Level(zerolog.DebugLevel)
			} else {
				log = log.Level(zerolog.InfoLevel)
			}
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().IntVar(&arity, "arity", 0, "hash arity / tree fan-out (0 = env or default)")
	rootCmd.PersistentFlags().IntVar(&fullRounds, "full-rounds", 0, "full rounds (0 = env or default)")
	rootCmd.PersistentFlags().IntVar(&partialRounds, "partial-rounds", -1, "partial rounds (-1 = env or default)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	hashCmd := &cobra.Command{
		Use:   "hash [element ...]",
		Short: "Hash up to arity hex field elements",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := params()
			if err != nil {
				return err
			}
			h := poseidon.NewWithParams(p)
			for _, arg := range args {
				v, err := parseElement(arg)
				if err != nil {
					return err
				}
				if err := h.Push(v); err != nil {
					return err
				}
			}
			digest := h.Hash()
			fmt.Printf("%s\n", elementHex(digest))
			return nil
		},
	}

	var leavesPath string

	treeRootCmd := &cobra.Command{
		Use:   "root",
		Short: "Build an in-memory tree from a leaves file and print the root",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := params()
			if err != nil {
				return err
			}
			leaves, err := readLeaves(leavesPath)
			if err != nil {
				return err
			}
			log.Debug().Int("leaves", len(leaves)).Str("params", p.String()).Msg("building tree")

			tree, err := merkle.Build(p, leaves)
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", elementHex(tree.Root()))
			return nil
		},
	}
	treeRootCmd.Flags().StringVar(&leavesPath, "leaves", "", "file with one hex leaf per line (required)")
	treeRootCmd.MarkFlagRequired("leaves")

	var (
		dbPath  string
		workers int
	)

	bigRootCmd := &cobra.Command{
		Use:   "bigroot",
		Short: "Build a persistent LevelDB-backed tree and print the root",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := params()
			if err != nil {
				return err
			}
			leaves, err := readLeaves(leavesPath)
			if err != nil {
				return err
			}

			store, err := storage.NewLevelStore(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			log.Debug().Int("leaves", len(leaves)).Int("workers", workers).
				Str("db", dbPath).Str("params", p.String()).Msg("building persistent tree")

			tree, err := bigmerkle.Build(p, leaves, store,
				bigmerkle.WithWorkers(workers), bigmerkle.WithLogger(log))
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", elementHex(tree.Root()))
			return nil
		},
	}
	bigRootCmd.Flags().StringVar(&leavesPath, "leaves", "", "file with one hex leaf per line (required)")
	bigRootCmd.Flags().StringVar(&dbPath, "db", "", "LevelDB directory (empty = in-memory)")
	bigRootCmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (0 = logical core count)")
	bigRootCmd.MarkFlagRequired("leaves")

	constantsCmd := &cobra.Command{
		Use:   "constants",
		Short: "Dump the round constants and MDS matrix for the configured parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := params()
			if err != nil {
				return err
			}
			fmt.Printf("# %s\n", p.String())
			for i, c := range poseidon.RoundConstants(p) {
				fmt.Printf("ark[%d] = %s\n", i, elementHex(c))
			}
			for i, row := range poseidon.MDSMatrix(p) {
				for j, e := range row {
					fmt.Printf("mds[%d][%d] = %s\n", i, j, elementHex(e))
				}
			}
			return nil
		},
	}

	rootCmd.AddCommand(hashCmd, treeRootCmd, bigRootCmd, constantsCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func parseElement(s string) (fr.Element, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fr.Element{}, fmt.Errorf("parse element %q: %w", s, err)
	}
	if len(b) > fr.Bytes {
		return fr.Element{}, fmt.Errorf("parse element %q: longer than %d bytes", s, fr.Bytes)
	}
	var e fr.Element
	e.SetBytes(b)
	return e, nil
}

func elementHex(e fr.Element) string {
	b := e.Bytes()
	return "0x" + hex.EncodeToString(b[:])
}

// readLeaves parses one hex element per line; blank lines and lines starting
// with # are skipped.
func readLeaves(path string) ([]fr.Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open leaves file: %w", err)
	}
	defer f.Close()

	var leaves []fr.Element
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		v, err := parseElement(line)
		if err != nil {
			return nil, fmt.Errorf("leaves file line %q: %w", line, err)
		}
		leaves = append(leaves, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read leaves file: %w", err)
	}
	return leaves, nil
}
