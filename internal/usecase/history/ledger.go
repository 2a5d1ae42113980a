package history

import (
	"sync"

	"github.com/redcloud442/aurora/internal/domain"
)

// Ledger is the session's journal of locally recorded entries, newest first.
// Entries appear here the moment they are recorded, before the server of
// record lists them.
type Ledger struct {
	mu      sync.RWMutex
	entries []*domain.LedgerEntry
}

// NewLedger creates an empty Ledger
func NewLedger() *Ledger {
	return &Ledger{}
}

// Record validates the entry and prepends it
func (l *Ledger) Record(entry *domain.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]*domain.LedgerEntry{entry}, l.entries...)
	return nil
}

// Recent returns the recorded entries that belong under the tab, newest first
func (l *Ledger) Recent(tab domain.HistoryTab) []*domain.LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*domain.LedgerEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if tab.Includes(e.Type) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of recorded entries
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear drops every recorded entry once the server of record has caught up
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
