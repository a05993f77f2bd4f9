package artifacts

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ubiubi18/whitelist-blueprint/pkg/persistence"
	"github.com/ubiubi18/whitelist-blueprint/pkg/whitelist"
)

// Artifact file names. These match the published on-disk layout consumed
// by existing offline checkers, so they must not change.
const (
	metaFileName        = "whitelist_meta.json"
	epochCountsFileName = "eligible_identities_per_epoch.csv"
)

var rootFilePattern = regexp.MustCompile(`^merkle_root_epoch_(\d+)\.txt$`)

func whitelistFileName(epoch int64) string {
	return fmt.Sprintf("whitelist_epoch%d.txt", epoch)
}

func rootFileName(epoch int64) string {
	return fmt.Sprintf("merkle_root_epoch_%d.txt", epoch)
}

func entriesFileName(epoch int64) string {
	return fmt.Sprintf("idena_whitelist_epoch%d.jsonl", epoch)
}

// Writer publishes run artifacts to a directory.
// The filesystem is abstracted so tests can run against an in-memory fs.
type Writer struct {
	fs     afero.Fs
	dir    string
	logger *zap.Logger
}

// NewWriter creates a writer that publishes into dir, creating it if needed.
func NewWriter(fs afero.Fs, dir string, logger *zap.Logger) (*Writer, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
	}
	return &Writer{fs: fs, dir: dir, logger: logger}, nil
}

// WriteSnapshot publishes the full artifact set for one run: the
// comma-joined whitelist, the root file, the per-address JSONL entries,
// and the metadata bundle.
func (w *Writer) WriteSnapshot(snapshot *whitelist.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("cannot write nil Snapshot")
	}

	if err := w.writeWhitelist(snapshot); err != nil {
		return err
	}
	if err := w.writeRoot(snapshot); err != nil {
		return err
	}
	if err := w.writeEntries(snapshot); err != nil {
		return err
	}
	if err := w.writeMeta(snapshot); err != nil {
		return err
	}

	w.logger.Sugar().Infow("Artifacts written",
		"dir", w.dir,
		"epoch", snapshot.Epoch,
		"whitelisted", len(snapshot.Addresses),
		"merkle_root", snapshot.MerkleRoot,
	)
	return nil
}

// writeWhitelist writes whitelist_epoch{N}.txt with ",\n"-joined addresses.
func (w *Writer) writeWhitelist(snapshot *whitelist.Snapshot) error {
	path := filepath.Join(w.dir, whitelistFileName(snapshot.Epoch))
	content := strings.Join(snapshot.Addresses, ",\n")
	if err := afero.WriteFile(w.fs, path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write whitelist file: %w", err)
	}
	return nil
}

// writeRoot writes merkle_root_epoch_{N}.txt containing the root and a newline.
func (w *Writer) writeRoot(snapshot *whitelist.Snapshot) error {
	path := filepath.Join(w.dir, rootFileName(snapshot.Epoch))
	if err := afero.WriteFile(w.fs, path, []byte(snapshot.MerkleRoot+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write merkle root file: %w", err)
	}
	return nil
}

// writeEntries writes the per-address JSONL detail records.
func (w *Writer) writeEntries(snapshot *whitelist.Snapshot) error {
	path := filepath.Join(w.dir, entriesFileName(snapshot.Epoch))

	f, err := w.fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create entries file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	for _, entry := range snapshot.Entries {
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("failed to write entry for %s: %w", entry.Address, err)
		}
	}
	return nil
}

// writeMeta writes whitelist_meta.json atomically (temp file + rename) so
// readers never observe a root without its threshold and epoch.
func (w *Writer) writeMeta(snapshot *whitelist.Snapshot) error {
	meta := &persistence.Meta{
		DiscriminationStakeThreshold: snapshot.Threshold,
		Epoch:                        snapshot.Epoch,
		MerkleRoot:                   snapshot.MerkleRoot,
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal meta: %w", err)
	}

	path := filepath.Join(w.dir, metaFileName)
	tmpPath := path + ".tmp"
	if err := afero.WriteFile(w.fs, tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write meta temp file: %w", err)
	}
	if err := w.fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to publish meta file: %w", err)
	}
	return nil
}

// WriteEpochCounts writes the historic per-epoch summary CSV.
func (w *Writer) WriteEpochCounts(counts []whitelist.EpochCount) error {
	path := filepath.Join(w.dir, epochCountsFileName)

	f, err := w.fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create epoch counts file: %w", err)
	}
	defer func() { _ = f.Close() }()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"Epoch", "EligibleCount"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, count := range counts {
		record := []string{
			strconv.FormatInt(count.Epoch, 10),
			strconv.Itoa(count.EligibleCount),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record for epoch %d: %w", count.Epoch, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush epoch counts file: %w", err)
	}
	return nil
}

// Reader loads published artifacts back from a directory, the way the
// offline checker consumes them.
type Reader struct {
	fs  afero.Fs
	dir string
}

// NewReader creates a reader over dir.
func NewReader(fs afero.Fs, dir string) *Reader {
	return &Reader{fs: fs, dir: dir}
}

// LatestRootEpoch scans for merkle_root_epoch_*.txt files and returns the
// highest epoch found. Returns an error when no root file exists.
func (r *Reader) LatestRootEpoch() (int64, error) {
	infos, err := afero.ReadDir(r.fs, r.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read artifact directory %s: %w", r.dir, err)
	}

	latest := int64(-1)
	for _, info := range infos {
		match := rootFilePattern.FindStringSubmatch(info.Name())
		if match == nil {
			continue
		}
		epoch, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			continue
		}
		if epoch > latest {
			latest = epoch
		}
	}

	if latest < 0 {
		return 0, fmt.Errorf("no merkle root file found in %s", r.dir)
	}
	return latest, nil
}

// ReadRoot loads the committed root for an epoch, trimmed of whitespace.
func (r *Reader) ReadRoot(epoch int64) (string, error) {
	path := filepath.Join(r.dir, rootFileName(epoch))
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return "", fmt.Errorf("failed to read merkle root file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ReadWhitelist loads the whitelist for an epoch in commitment order.
// Accepts both comma-separated and line-separated files; falls back to
// the legacy whitelist.txt when the per-epoch file is missing.
func (r *Reader) ReadWhitelist(epoch int64) ([]string, error) {
	path := filepath.Join(r.dir, whitelistFileName(epoch))
	exists, err := afero.Exists(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat whitelist file: %w", err)
	}
	if !exists {
		path = filepath.Join(r.dir, "whitelist.txt")
	}

	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read whitelist file: %w", err)
	}

	content := string(data)
	var parts []string
	if strings.Contains(content, ",") {
		parts = strings.Split(content, ",")
	} else {
		parts = strings.Split(content, "\n")
	}

	addresses := make([]string, 0, len(parts))
	for _, part := range parts {
		if addr := strings.TrimSpace(part); addr != "" {
			addresses = append(addresses, addr)
		}
	}
	return addresses, nil
}

// ReadMeta loads the metadata bundle.
func (r *Reader) ReadMeta() (*persistence.Meta, error) {
	path := filepath.Join(r.dir, metaFileName)
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read meta file: %w", err)
	}
	return persistence.UnmarshalMeta(data)
}
