package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/tradeboard/backend/src/logger"
	"github.com/tradeboard/backend/src/models"
)

// FilePaths locates the JSON documents of a FileBackend.
type FilePaths struct {
	Trades        string
	Config        string
	Comments      string
	PendingCloses string
}

// FileBackend keeps the dashboard state in JSON documents. Every write goes to
// a temporary file in the same directory and is renamed over the live
// document, so concurrent readers (including the trading agent) never observe
// a partial write. mu serializes read-modify-write cycles within the process.
type FileBackend struct {
	paths FilePaths
	mu    sync.Mutex
}

type tradesDocument struct {
	Account      *models.Account `json:"account,omitempty"`
	OpenTrades   []models.Trade  `json:"open_trades"`
	ClosedTrades []models.Trade  `json:"closed_trades"`
}

type configDocument struct {
	Config models.DashboardConfig `json:"config"`
}

type commentsDocument struct {
	Comments map[string]models.Comment `json:"comments"`
}

type pendingDocument struct {
	PendingCloses []models.PendingClose `json:"pending_closes"`
}

func NewFileBackend(paths FilePaths) *FileBackend {
	return &FileBackend{paths: paths}
}

func (b *FileBackend) Kind() string          { return "file" }
func (b *FileBackend) DateSeparator() string { return "." }
func (b *FileBackend) Close() error          { return nil }

// readDocument decodes path into v. A missing file leaves v untouched and is
// not an error.
func readDocument(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(path), err)
	}
	return nil
}

// writeDocumentAtomic replaces path with the JSON encoding of v.
func writeDocumentAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// --- Trades ---

func (b *FileBackend) loadTrades() (*tradesDocument, error) {
	doc := &tradesDocument{}
	if err := readDocument(b.paths.Trades, doc); err != nil {
		return nil, err
	}
	// The agent writes "close_time": "" for open positions.
	for _, list := range [][]models.Trade{doc.OpenTrades, doc.ClosedTrades} {
		for i := range list {
			if list[i].CloseTime != nil && list[i].CloseTime.IsZero() {
				list[i].CloseTime = nil
			}
		}
	}
	return doc, nil
}

func (d *tradesDocument) all() []models.Trade {
	trades := make([]models.Trade, 0, len(d.OpenTrades)+len(d.ClosedTrades))
	trades = append(trades, d.OpenTrades...)
	trades = append(trades, d.ClosedTrades...)
	sort.SliceStable(trades, func(i, j int) bool { return trades[i].Ticket < trades[j].Ticket })
	return trades
}

// repartition rebuilds the open/closed lists from the close_time of each trade.
func (d *tradesDocument) repartition(trades []models.Trade) {
	d.OpenTrades = []models.Trade{}
	d.ClosedTrades = []models.Trade{}
	for _, t := range trades {
		if t.IsOpen() {
			d.OpenTrades = append(d.OpenTrades, t)
		} else {
			d.ClosedTrades = append(d.ClosedTrades, t)
		}
	}
}

func (d *tradesDocument) find(ticket int64) (int, []models.Trade) {
	trades := d.all()
	for i := range trades {
		if trades[i].Ticket == ticket {
			return i, trades
		}
	}
	return -1, trades
}

func (b *FileBackend) requireTrade(ticket int64) error {
	doc, err := b.loadTrades()
	if err != nil {
		return err
	}
	if i, _ := doc.find(ticket); i < 0 {
		return fmt.Errorf("trade %d: %w", ticket, ErrNotFound)
	}
	return nil
}

func (b *FileBackend) GetTrades(ctx context.Context) ([]models.Trade, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.loadTrades()
	if err != nil {
		return nil, err
	}
	return doc.all(), nil
}

func (b *FileBackend) GetTrade(ctx context.Context, ticket int64) (*models.Trade, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.loadTrades()
	if err != nil {
		return nil, err
	}
	i, trades := doc.find(ticket)
	if i < 0 {
		return nil, fmt.Errorf("trade %d: %w", ticket, ErrNotFound)
	}
	t := trades[i]
	return &t, nil
}

func (b *FileBackend) AddTrade(ctx context.Context, t models.Trade) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.loadTrades()
	if err != nil {
		return false, err
	}
	i, trades := doc.find(t.Ticket)
	if i >= 0 {
		return false, nil
	}
	doc.repartition(append(trades, t))
	if err := writeDocumentAtomic(b.paths.Trades, doc); err != nil {
		return false, err
	}
	return true, nil
}

func (b *FileBackend) UpdateTrade(ctx context.Context, ticket int64, mutate TradeMutation) (*models.Trade, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.loadTrades()
	if err != nil {
		return nil, err
	}
	i, trades := doc.find(ticket)
	if i < 0 {
		return nil, fmt.Errorf("trade %d: %w", ticket, ErrNotFound)
	}

	t := trades[i]
	confirm, err := mutate(&t)
	if err != nil {
		return nil, err
	}
	trades[i] = t
	doc.repartition(trades)
	if err := writeDocumentAtomic(b.paths.Trades, doc); err != nil {
		return nil, err
	}
	if confirm {
		if err := b.confirmClose(ticket); err != nil {
			logger.FromContext(ctx).Error("Trade update saved but close confirmation failed",
				"ticket", ticket, "error", err)
			return &t, fmt.Errorf("trade %d updated, but confirming its close failed: %w", ticket, err)
		}
	}
	return &t, nil
}

// --- Account ---

func (b *FileBackend) GetAccount(ctx context.Context) (*models.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.loadTrades()
	if err != nil {
		return nil, err
	}
	return doc.Account, nil
}

func (b *FileBackend) UpsertAccount(ctx context.Context, a models.Account) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.loadTrades()
	if err != nil {
		return err
	}
	if doc.Account != nil && doc.Account.Number == a.Number && doc.Account.CreatedAt != nil {
		a.CreatedAt = doc.Account.CreatedAt
	}
	doc.Account = &a
	doc.repartition(doc.all())
	return writeDocumentAtomic(b.paths.Trades, doc)
}

// --- Config ---

func (b *FileBackend) loadConfig() (models.DashboardConfig, error) {
	doc := configDocument{Config: models.DefaultDashboardConfig()}
	if err := readDocument(b.paths.Config, &doc); err != nil {
		return models.DashboardConfig{}, err
	}
	return doc.Config, nil
}

func (b *FileBackend) GetConfig(ctx context.Context) (models.DashboardConfig, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.loadConfig()
}

func (b *FileBackend) PatchConfig(ctx context.Context, patch func(c *models.DashboardConfig)) (models.DashboardConfig, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cfg, err := b.loadConfig()
	if err != nil {
		return models.DashboardConfig{}, err
	}
	patch(&cfg)
	if err := writeDocumentAtomic(b.paths.Config, configDocument{Config: cfg}); err != nil {
		return models.DashboardConfig{}, err
	}
	return cfg, nil
}

// --- Comments ---

func (b *FileBackend) loadComments() (*commentsDocument, error) {
	doc := &commentsDocument{}
	if err := readDocument(b.paths.Comments, doc); err != nil {
		return nil, err
	}
	if doc.Comments == nil {
		doc.Comments = make(map[string]models.Comment)
	}
	return doc, nil
}

func (b *FileBackend) GetComments(ctx context.Context) (map[string]models.Comment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.loadComments()
	if err != nil {
		return nil, err
	}
	return doc.Comments, nil
}

func (b *FileBackend) UpsertComment(ctx context.Context, ticket int64, c models.Comment) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireTrade(ticket); err != nil {
		return err
	}
	doc, err := b.loadComments()
	if err != nil {
		return err
	}
	doc.Comments[strconv.FormatInt(ticket, 10)] = c
	return writeDocumentAtomic(b.paths.Comments, doc)
}

func (b *FileBackend) EditComment(ctx context.Context, ticket int64, edit func(c *models.Comment)) (*models.Comment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.loadComments()
	if err != nil {
		return nil, err
	}
	key := strconv.FormatInt(ticket, 10)
	c, ok := doc.Comments[key]
	if !ok {
		return nil, fmt.Errorf("comment %d: %w", ticket, ErrNotFound)
	}
	edit(&c)
	doc.Comments[key] = c
	if err := writeDocumentAtomic(b.paths.Comments, doc); err != nil {
		return nil, err
	}
	return &c, nil
}

func (b *FileBackend) DeleteComment(ctx context.Context, ticket int64) (*models.Comment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.loadComments()
	if err != nil {
		return nil, err
	}
	key := strconv.FormatInt(ticket, 10)
	c, ok := doc.Comments[key]
	if !ok {
		return nil, fmt.Errorf("comment %d: %w", ticket, ErrNotFound)
	}
	delete(doc.Comments, key)
	if err := writeDocumentAtomic(b.paths.Comments, doc); err != nil {
		return nil, err
	}
	return &c, nil
}

// --- Pending closes ---

func (b *FileBackend) loadPending() (*pendingDocument, error) {
	doc := &pendingDocument{}
	if err := readDocument(b.paths.PendingCloses, doc); err != nil {
		return nil, err
	}
	if doc.PendingCloses == nil {
		doc.PendingCloses = []models.PendingClose{}
	}
	return doc, nil
}

// confirmClose expects b.mu to be held.
func (b *FileBackend) confirmClose(ticket int64) error {
	doc, err := b.loadPending()
	if err != nil {
		return err
	}
	found := false
	for i := range doc.PendingCloses {
		if doc.PendingCloses[i].Ticket == ticket {
			doc.PendingCloses[i].ActionFinish = models.ActionFinished
			found = true
		}
	}
	if !found {
		doc.PendingCloses = append(doc.PendingCloses, models.PendingClose{Ticket: ticket, ActionFinish: models.ActionFinished})
	}
	return writeDocumentAtomic(b.paths.PendingCloses, doc)
}

func (b *FileBackend) RequestClose(ctx context.Context, ticket int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireTrade(ticket); err != nil {
		return err
	}
	doc, err := b.loadPending()
	if err != nil {
		return err
	}
	kept := doc.PendingCloses[:0]
	for _, p := range doc.PendingCloses {
		if p.Ticket != ticket {
			kept = append(kept, p)
		}
	}
	doc.PendingCloses = append(kept, models.PendingClose{Ticket: ticket, ActionFinish: models.ActionPending})
	return writeDocumentAtomic(b.paths.PendingCloses, doc)
}

func (b *FileBackend) ConfirmClose(ctx context.Context, ticket int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireTrade(ticket); err != nil {
		return err
	}
	return b.confirmClose(ticket)
}

func (b *FileBackend) PendingCloses(ctx context.Context) ([]int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.loadPending()
	if err != nil {
		return nil, err
	}
	var tickets []int64
	for _, p := range doc.PendingCloses {
		if p.ActionFinish == models.ActionPending {
			tickets = append(tickets, p.Ticket)
		}
	}
	return tickets, nil
}
