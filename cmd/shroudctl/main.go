// main.go - Pool client command line.
//
// Subcommands:
//   keygen    create a wallet and print the receiving keys
//   deposit   mint denomination notes for an amount and append their leaves
//   withdraw  spend a note: nullifier, balance proof, membership proof
//   scan      match published stealth addresses against the wallet keys
//   status    show wallet balance and tree state
//   serve     run a leaf store over HTTP backed by the local ledger
//
// The ledger file stands in for the on-chain store; point store_url at a
// remote store to run against a shared deployment.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/rs/zerolog"

	"shroud/internal/aehint"
	"shroud/internal/curve"
	"shroud/internal/elgamal"
	"shroud/internal/felthash"
	"shroud/internal/merkle"
	"shroud/internal/pedersen"
	"shroud/internal/sigma"
	"shroud/internal/stealth"
	"shroud/internal/storerpc"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	configPath := "shroudctl.json"
	if env := os.Getenv("SHROUDCTL_CONFIG"); env != "" {
		configPath = env
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := newLogger(cfg.LogLevel)

	var cmdErr error
	switch os.Args[1] {
	case "keygen":
		cmdErr = runKeygen(cfg, log)
	case "deposit":
		cmdErr = runDeposit(cfg, log, os.Args[2:])
	case "withdraw":
		cmdErr = runWithdraw(cfg, log, os.Args[2:])
	case "scan":
		cmdErr = runScan(cfg, log, os.Args[2:])
	case "status":
		cmdErr = runStatus(cfg, log)
	case "serve":
		cmdErr = runServe(cfg, log, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if cmdErr != nil {
		log.Error().Err(cmdErr).Str("command", os.Args[1]).Msg("command failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: shroudctl <keygen|deposit|withdraw|scan|status|serve> [flags]")
}

func runKeygen(cfg *Config, log zerolog.Logger) error {
	if _, err := os.Stat(cfg.WalletPath); err == nil {
		return fmt.Errorf("wallet already exists at %s", cfg.WalletPath)
	}
	w, err := NewWallet()
	if err != nil {
		return err
	}
	if err := w.SaveToFile(cfg.WalletPath); err != nil {
		return err
	}
	log.Info().Str("path", cfg.WalletPath).Msg("wallet created")

	out := map[string]interface{}{
		"elgamalPk": curve.PointToFelts(w.ElGamalPK),
		"viewPk":    curve.PointToFelts(w.ViewPK),
		"spendPk":   curve.PointToFelts(w.SpendPK),
	}
	return printJSON(out)
}

func runDeposit(cfg *Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("deposit", flag.ExitOnError)
	amount := fs.Uint64("amount", 0, "amount to deposit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *amount == 0 {
		return fmt.Errorf("deposit: -amount must be positive")
	}

	w, err := LoadWalletFromFile(cfg.WalletPath)
	if err != nil {
		return err
	}
	ledger, err := openLedger(cfg)
	if err != nil {
		return err
	}
	s := felthash.NewMiMC()
	metrics := NewMetricsCollector()

	notes, err := pedersen.CreateDenominationNotes(*amount, cfg.TokenTag, cfg.Denominations)
	if err != nil {
		return err
	}
	leaves := make([]string, 0, len(notes))
	for _, n := range notes {
		ct, r, err := elgamal.Encrypt(new(big.Int).SetUint64(n.Value), w.ElGamalPK, nil)
		if err != nil {
			return err
		}
		n.AttachEncryptedAmount(ct, r)

		leaf, err := pedersen.CommitmentToFelt(s, n.Commitment)
		if err != nil {
			return err
		}
		idx, err := appendLeaf(cfg, ledger, leaf)
		if err != nil {
			return err
		}
		n.LeafIndex = idx
		w.Notes = append(w.Notes, n)
		leaves = append(leaves, curve.FeltToHex(leaf))
	}
	metrics.Add(MetricNotesCreated, int64(len(notes)))

	if err := ledger.SaveToFile(cfg.LedgerPath); err != nil {
		return err
	}
	if err := w.SaveToFile(cfg.WalletPath); err != nil {
		return err
	}
	log.Info().Uint64("amount", *amount).Int("notes", len(notes)).Msg("deposit complete")
	for _, line := range metrics.Summary() {
		log.Debug().Msg(line)
	}
	return printJSON(map[string]interface{}{"leaves": leaves})
}

// withdrawalBundle is what a relayer submits on chain.
type withdrawalBundle struct {
	Amount       uint64        `json:"amount"`
	Nullifier    string        `json:"nullifier"`
	Root         string        `json:"root"`
	Membership   *merkle.Proof `json:"membership"`
	OldC         []string      `json:"oldCommitment"`
	NewC         []string      `json:"newCommitment"`
	RangeProof   []string      `json:"rangeProof"`
	LinkProof    []string      `json:"linkProof"`
	ChangeLeaf   string        `json:"changeLeaf,omitempty"`
	ChangeAmount uint64        `json:"changeAmount"`
}

func runWithdraw(cfg *Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("withdraw", flag.ExitOnError)
	amount := fs.Uint64("amount", 0, "amount to withdraw")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *amount == 0 {
		return fmt.Errorf("withdraw: -amount must be positive")
	}

	w, err := LoadWalletFromFile(cfg.WalletPath)
	if err != nil {
		return err
	}
	ledger, err := openLedger(cfg)
	if err != nil {
		return err
	}
	s := felthash.NewMiMC()
	metrics := NewMetricsCollector()
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	note, err := w.PickNote(*amount)
	if err != nil {
		return err
	}
	nf, err := felthash.DeriveNullifier(s, note.NullifierSecret, note.LeafIndex)
	if err != nil {
		return err
	}
	spent, err := nullifierSpent(cfg, ledger, nf)
	if err != nil {
		return err
	}
	if spent {
		return fmt.Errorf("note at leaf %d already spent", note.LeafIndex)
	}

	var proof *sigma.BalanceProof
	var newBlinding *big.Int
	err = metrics.Time(MetricProofTime, func() error {
		var perr error
		proof, newBlinding, perr = sigma.GenerateBalanceProof(s, note.Value, *amount, note.Blinding, cfg.RangeBits)
		return perr
	})
	if err != nil {
		return err
	}

	session := merkle.NewSession(readerFor(cfg, ledger, log), s, log)
	session.SetFetchWorkers(cfg.FetchWorkers)
	leaf, err := pedersen.CommitmentToFelt(s, note.Commitment)
	if err != nil {
		return err
	}
	var membership *merkle.Proof
	err = metrics.Time(MetricSyncTime, func() error {
		var perr error
		membership, perr = session.ProofFor(ctx, leaf)
		return perr
	})
	if err != nil {
		return err
	}

	if err := markNullifier(cfg, ledger, nf); err != nil {
		return err
	}
	note.Spent = true
	metrics.Add(MetricNotesSpent, 1)

	bundle := withdrawalBundle{
		Amount:       *amount,
		Nullifier:    curve.FeltToHex(nf),
		Root:         curve.FeltToHex(membership.Root),
		Membership:   membership,
		OldC:         proof.OldCommitment.ToFelts(),
		NewC:         proof.NewCommitment.ToFelts(),
		RangeProof:   proof.Remainder.ToFelts(),
		LinkProof:    proof.Link.ToFelts(),
		ChangeAmount: note.Value - *amount,
	}

	// A partial spend leaves change behind as a fresh note on the new
	// commitment.
	if change := note.Value - *amount; change > 0 {
		secret, err := curve.RandomScalar()
		if err != nil {
			return err
		}
		changeNote := &pedersen.Note{
			Value:           change,
			Blinding:        newBlinding,
			NullifierSecret: secret,
			Commitment:      proof.NewCommitment,
			TokenTag:        note.TokenTag,
		}
		changeLeaf, err := pedersen.CommitmentToFelt(s, changeNote.Commitment)
		if err != nil {
			return err
		}
		idx, err := appendLeaf(cfg, ledger, changeLeaf)
		if err != nil {
			return err
		}
		changeNote.LeafIndex = idx
		w.Notes = append(w.Notes, changeNote)
		bundle.ChangeLeaf = curve.FeltToHex(changeLeaf)
	}

	if err := ledger.SaveToFile(cfg.LedgerPath); err != nil {
		return err
	}
	if err := w.SaveToFile(cfg.WalletPath); err != nil {
		return err
	}
	log.Info().
		Uint64("amount", *amount).
		Uint64("leaf", note.LeafIndex).
		Str("nullifier", bundle.Nullifier).
		Msg("withdrawal proven")
	for _, line := range metrics.Summary() {
		log.Debug().Msg(line)
	}
	return printJSON(bundle)
}

// announcement is one published output: the one-time address, and optionally
// the amount ciphertext with its symmetric hint.
type announcement struct {
	Address    stealth.Address     `json:"address"`
	Ciphertext *elgamal.Ciphertext `json:"ciphertext,omitempty"`
	Hint       *aehint.Hint        `json:"hint,omitempty"`
}

func runScan(cfg *Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	file := fs.String("file", "", "JSON file with published announcements")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("scan: -file is required")
	}

	w, err := LoadWalletFromFile(cfg.WalletPath)
	if err != nil {
		return err
	}
	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()
	var anns []announcement
	if err := json.NewDecoder(f).Decode(&anns); err != nil {
		return fmt.Errorf("decoding %s: %w", *file, err)
	}

	s := felthash.NewMiMC()
	keys := stealth.Keys{ViewSK: w.ViewSK, SpendSK: w.SpendSK}
	matches := make([]map[string]interface{}, 0)
	for i, ann := range anns {
		ok, err := stealth.Matches(s, ann.Address, w.ViewSK, w.SpendPK)
		if err != nil {
			log.Warn().Int("index", i).Err(err).Msg("skipping malformed address")
			continue
		}
		if !ok {
			continue
		}
		sk, pk, err := stealth.RecoverKey(s, ann.Address, keys)
		if err != nil {
			return err
		}
		match := map[string]interface{}{
			"index":     i,
			"stealthPk": curve.PointToFelts(pk),
			"stealthSk": curve.FeltToHex(sk),
		}
		if ann.Ciphertext != nil {
			amount, err := aehint.HybridDecrypt(s, ann.Hint, *ann.Ciphertext, w.ElGamalSK, cfg.MaxDecryptValue)
			if err != nil {
				log.Warn().Int("index", i).Err(err).Msg("matched output but could not recover amount")
			} else {
				match["amount"] = amount
			}
		}
		matches = append(matches, match)
	}
	log.Info().Int("scanned", len(anns)).Int("matched", len(matches)).Msg("scan complete")
	return printJSON(matches)
}

func runStatus(cfg *Config, log zerolog.Logger) error {
	ledger, err := openLedger(cfg)
	if err != nil {
		return err
	}
	s := felthash.NewMiMC()
	ctx := context.Background()

	session := merkle.NewSession(readerFor(cfg, ledger, log), s, log)
	session.SetFetchWorkers(cfg.FetchWorkers)
	root, err := session.Root(ctx)
	if err != nil {
		return err
	}
	count, err := ledger.LeafCount(ctx)
	if err != nil {
		return err
	}

	out := map[string]interface{}{
		"leaves": count,
		"depth":  merkle.CalculateDepth(count),
		"root":   curve.FeltToHex(root),
	}
	if w, err := LoadWalletFromFile(cfg.WalletPath); err == nil {
		out["balance"] = w.Balance()
		out["notes"] = len(w.Notes)
	}
	return printJSON(out)
}

func runServe(cfg *Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8791", "listen address")
	burst := fs.Int("burst", 50, "per-peer request burst")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ledger, err := openLedger(cfg)
	if err != nil {
		return err
	}
	throttle := storerpc.NewPeerThrottle(*burst, *burst, time.Second)
	server := storerpc.NewServer(ledger, throttle, log)
	return server.ListenAndServe(*addr)
}

// openLedger loads the local ledger file, starting empty if it is absent.
func openLedger(cfg *Config) (*merkle.MemoryLedger, error) {
	ledger, err := merkle.LoadLedgerFromFile(cfg.LedgerPath)
	if errors.Is(err, os.ErrNotExist) {
		return merkle.NewMemoryLedger(), nil
	}
	return ledger, err
}

// readerFor picks the leaf source: the remote store when configured,
// otherwise the local ledger.
func readerFor(cfg *Config, ledger *merkle.MemoryLedger, log zerolog.Logger) merkle.StorageReader {
	if cfg.StoreURL != "" {
		return storerpc.NewClient(cfg.StoreURL, log)
	}
	return ledger
}

// appendLeaf writes the leaf to the remote store when configured, and always
// to the local ledger so the mirror stays usable offline.
func appendLeaf(cfg *Config, ledger *merkle.MemoryLedger, leaf *big.Int) (uint64, error) {
	if cfg.StoreURL != "" {
		client := storerpc.NewClient(cfg.StoreURL, zerolog.Nop())
		ctx, cancel := storeContext(cfg)
		defer cancel()
		idx, err := client.AppendLeaf(ctx, leaf)
		if err != nil {
			return 0, err
		}
		ledger.Append(leaf)
		return idx, nil
	}
	return ledger.Append(leaf), nil
}

// nullifierSpent consults the remote store first when one is configured; a
// spend recorded by another client must block the withdrawal even if the
// local registry has never seen it.
func nullifierSpent(cfg *Config, ledger *merkle.MemoryLedger, nf *big.Int) (bool, error) {
	if cfg.StoreURL != "" {
		client := storerpc.NewClient(cfg.StoreURL, zerolog.Nop())
		ctx, cancel := storeContext(cfg)
		defer cancel()
		spent, err := client.HasNullifier(ctx, nf)
		if err != nil {
			return false, err
		}
		if spent {
			return true, nil
		}
	}
	return ledger.HasNullifier(nf), nil
}

// markNullifier records the spend on the remote store when configured, and
// always locally, mirroring appendLeaf.
func markNullifier(cfg *Config, ledger *merkle.MemoryLedger, nf *big.Int) error {
	if cfg.StoreURL != "" {
		client := storerpc.NewClient(cfg.StoreURL, zerolog.Nop())
		ctx, cancel := storeContext(cfg)
		defer cancel()
		if err := client.MarkNullifier(ctx, nf); err != nil {
			return err
		}
	}
	return ledger.MarkNullifier(nf)
}

func storeContext(cfg *Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(cfg.TimeoutSeconds)*time.Second)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
