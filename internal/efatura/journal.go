package efatura

import (
	"encoding/json"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/id"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
)

// logClock hands out strictly increasing microsecond timestamps so audit
// rows of one invoice sort in the order they were written, even when the
// wall clock stalls or steps back.
type logClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func newLogClock(now func() time.Time) *logClock {
	return &logClock{now: now}
}

func (c *logClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

// statusSnapshot is the part of an invoice a lifecycle action can change
type statusSnapshot struct {
	GIBStatus        model.GIBStatus `json:"gibStatus"`
	GIBTransactionID string          `json:"gibTransactionId,omitempty"`
	GIBErrorCode     string          `json:"gibErrorCode,omitempty"`
	GIBErrorMessage  string          `json:"gibErrorMessage,omitempty"`
	GIBStatusDate    *time.Time      `json:"gibStatusDate,omitempty"`
	SentAt           *time.Time      `json:"sentAt,omitempty"`
}

func snapshotOf(inv *model.Invoice) datatypes.JSON {
	return mustJSON(statusSnapshot{
		GIBStatus:        inv.GIBStatus,
		GIBTransactionID: inv.GIBTransactionID,
		GIBErrorCode:     inv.GIBErrorCode,
		GIBErrorMessage:  inv.GIBErrorMessage,
		GIBStatusDate:    inv.GIBStatusDate,
		SentAt:           inv.SentAt,
	})
}

func mustJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		// unreachable for the plain structs logged here
		panic(err)
	}
	return datatypes.JSON(b)
}

// entry describes one audit row
type entry struct {
	action  model.LogAction
	outcome model.LogOutcome
	from    model.GIBStatus
	to      model.GIBStatus
	code    string
	message string
	before  datatypes.JSON
	after   datatypes.JSON
}

func (s *Service) newLog(inv *model.Invoice, e entry) *model.InvoiceLog {
	return &model.InvoiceLog{
		ID:             id.NewInvoiceLogID(),
		InvoiceID:      inv.ID,
		BusinessID:     inv.BusinessID,
		Action:         e.action,
		Outcome:        e.outcome,
		PreviousStatus: e.from,
		NewStatus:      e.to,
		ErrorCode:      e.code,
		Message:        truncate(e.message, 1000),
		Before:         e.before,
		After:          e.after,
		CreatedAt:      s.clock.Next(),
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
