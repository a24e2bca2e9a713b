package gateway

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/medisync/medisync/internal/apperr"
	"github.com/medisync/medisync/internal/store"
	"github.com/medisync/medisync/internal/syncer"
)

// readOnlyViolationMessage is the stable message surfaced for any
// non-SELECT query text.
const readOnlyViolationMessage = "only SELECT queries are allowed"

// SyncTrigger runs one cache-to-store synchronization pass.
type SyncTrigger interface {
	Sync(ctx context.Context) syncer.Result
}

// ChangeAnnouncer publishes a data-changed notification.
type ChangeAnnouncer interface {
	NotifyDataChanged(key string)
}

// Gateway accepts raw query text from the UI surface, enforces the
// read-only policy, and executes against the store. Write capability never
// leaks through it: rejection happens here, not in the store.
type Gateway struct {
	store    *store.Store
	sync     SyncTrigger
	announce ChangeAnnouncer
	log      *zap.Logger
	now      func() time.Time
}

// Result is the uniform row-set shape returned for an accepted query.
type Result struct {
	Columns         []string `json:"columns"`
	Rows            [][]any  `json:"rows"`
	RowCount        int      `json:"rowCount"`
	ExecutionTimeMs float64  `json:"executionTimeMs"`
}

// New creates a gateway. sync and announce may be nil when no
// synchronization or notification should follow query execution.
func New(st *store.Store, sync SyncTrigger, announce ChangeAnnouncer, log *zap.Logger) *Gateway {
	return &Gateway{
		store:    st,
		sync:     sync,
		announce: announce,
		log:      log,
		now:      time.Now,
	}
}

// ExecuteReadOnly validates, executes, and times one ad-hoc query.
//
// The trimmed, case-normalized text must begin with the SELECT keyword and
// contain a single statement; any other statement kind, or a batch hiding a
// second statement behind a semicolon, fails with a policy violation before
// reaching the store. Malformed SQL surfaces the store's native error
// message verbatim.
//
// After a successful execution the gateway triggers a synchronization pass
// and a change notification, so externally-run queries with trigger side
// effects are reflected.
func (g *Gateway) ExecuteReadOnly(ctx context.Context, text string) (Result, error) {
	if !isSelect(text) || hasTrailingStatement(text) {
		return Result{}, apperr.New(apperr.CodeQueryPolicyViolation, readOnlyViolationMessage)
	}

	start := g.now()
	rs, err := g.store.Query(ctx, text)
	elapsed := g.now().Sub(start)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.CodeQueryExecutionFailed, "execute query", err)
	}

	if g.sync != nil {
		g.sync.Sync(ctx)
	}
	if g.announce != nil {
		g.announce.NotifyDataChanged("query")
	}

	return Result{
		Columns:         rs.Columns,
		Rows:            rs.Rows,
		RowCount:        rs.RowCount(),
		ExecutionTimeMs: float64(elapsed.Microseconds()) / 1000.0,
	}, nil
}

// isSelect reports whether the trimmed, case-normalized query text begins
// with the SELECT keyword.
func isSelect(text string) bool {
	trimmed := strings.ToUpper(strings.TrimSpace(text))
	return strings.HasPrefix(trimmed, "SELECT")
}

// hasTrailingStatement reports whether anything follows the first
// statement-terminating semicolon. The driver executes a batch as written,
// so a prefix check alone would let "SELECT 1; DELETE ..." smuggle a write
// past the policy. Semicolons inside quoted literals and quoted identifiers
// do not terminate a statement; a single trailing semicolon is fine.
func hasTrailingStatement(text string) bool {
	var inSingle, inDouble bool
	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == ';':
			if strings.TrimSpace(text[i+1:]) != "" {
				return true
			}
		}
	}
	return false
}
