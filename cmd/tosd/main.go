package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"toschain/config"
	"toschain/core"
	"toschain/core/genesis"
	coretx "toschain/core/tx"
	"toschain/core/types"
	"toschain/observability/logging"
	"toschain/storage"
)

func main() {
	configFile := flag.String("config", "./tosd.toml", "Path to the run configuration file")
	snapshotFlag := flag.String("snapshot", "", "Path to a state snapshot (overrides the config)")
	blocksFlag := flag.String("blocks", "", "Path to a block file of hex-encoded transactions (overrides the config)")
	outFlag := flag.String("out", "", "Write the resulting state snapshot to this path")
	flag.Parse()

	cfg, err := config.LoadRunConfig(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if *snapshotFlag != "" {
		cfg.SnapshotFile = *snapshotFlag
	}
	if *blocksFlag != "" {
		cfg.BlocksFile = *blocksFlag
	}
	if *outFlag != "" {
		cfg.OutputFile = *outFlag
	}

	logger := logging.Setup("tosd", cfg.NetworkName)

	params, err := cfg.Params()
	if err != nil {
		logger.Error("Failed to resolve network parameters", slog.Any("error", err))
		os.Exit(1)
	}

	st, err := genesis.Load(cfg.SnapshotFile)
	if err != nil {
		logger.Error("Failed to load snapshot", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Snapshot loaded",
		slog.String("file", cfg.SnapshotFile),
		slog.Int("accounts", len(st.Accounts)),
		slog.Uint64("height", st.Global.BlockHeight))

	exec := core.NewExecutor(params)

	if cfg.BlocksFile != "" {
		blocks, err := readBlocks(cfg.BlocksFile)
		if err != nil {
			logger.Error("Failed to read block file", slog.Any("error", err))
			os.Exit(1)
		}
		for i, block := range blocks {
			next, err := exec.ApplyBlock(st, block)
			if err != nil {
				logger.Error("Block rejected",
					slog.Int("block", i),
					slog.Any("error", err))
				os.Exit(1)
			}
			st = next
			logger.Info("Block applied",
				slog.Int("block", i),
				slog.Int("txs", len(block)),
				slog.Uint64("height", st.Global.BlockHeight))
		}
	}

	digest := core.ComputeStateDigest(st)
	logger.Info("State digest", slog.String("digest", hex.EncodeToString(digest[:])))
	fmt.Println(hex.EncodeToString(digest[:]))

	if cfg.DataDir != "" {
		db, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			logger.Error("Failed to open database", slog.Any("error", err))
			os.Exit(1)
		}
		defer db.Close()
		if _, err := storage.NewSnapshotStore(db).Put(st); err != nil {
			logger.Error("Failed to persist snapshot", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Snapshot persisted", slog.String("datadir", cfg.DataDir))
	}

	if cfg.OutputFile != "" {
		if err := genesis.Save(cfg.OutputFile, st); err != nil {
			logger.Error("Failed to write output snapshot", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Output snapshot written", slog.String("file", cfg.OutputFile))
	}
}

// readBlocks parses a block file: one hex-encoded wire transaction per
// line, blank lines separating blocks, # starting a comment line.
func readBlocks(path string) ([][]*types.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var blocks [][]*types.Transaction
	var current []*types.Transaction

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		if strings.HasPrefix(text, "#") {
			continue
		}
		raw, err := hex.DecodeString(strings.TrimPrefix(text, "0x"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		tx, err := coretx.DecodeTransaction(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		current = append(current, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks, nil
}
