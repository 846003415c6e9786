package efatura

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/gib"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store"
)

// loadEFatura fetches an invoice and checks that it is a portal invoice
func (s *Service) loadEFatura(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	inv, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	switch inv.Variant().(type) {
	case model.EFatura:
		return inv, nil
	default:
		return nil, model.NewServiceValidationError("kind", "invoice is not an e-Fatura", nil)
	}
}

func (s *Service) portalFor(ctx context.Context, businessID string) (gib.Portal, error) {
	st, err := s.enabledSettings(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if s.portals == nil {
		return nil, model.NewNotConfiguredError("GIB portal is not configured")
	}
	return s.portals.PortalFor(st)
}

// commit writes inv if its stored status is still from, together with one
// audit row describing the change
func (s *Service) commit(ctx context.Context, inv *model.Invoice, from model.GIBStatus, before datatypes.JSON, e entry) error {
	e.from = from
	e.to = inv.GIBStatus
	e.before = before
	e.after = snapshotOf(inv)

	err := s.store.UpdateInvoice(ctx, inv, from, s.newLog(inv, e))
	switch {
	case errors.Is(err, store.ErrStale):
		return model.NewConflictError("gibStatus", "invoice was changed by another request", err)
	case errors.Is(err, store.ErrNotFound):
		return model.NewNotFoundError("invoiceId", "invoice not found")
	}
	return err
}

// recordFailure appends a FAILURE row without touching the invoice
func (s *Service) recordFailure(ctx context.Context, inv *model.Invoice, action model.LogAction, code, message string) {
	l := s.newLog(inv, entry{
		action:  action,
		outcome: model.OutcomeFailure,
		from:    inv.GIBStatus,
		to:      inv.GIBStatus,
		code:    code,
		message: message,
		before:  snapshotOf(inv),
	})
	if err := s.store.AppendLog(ctx, l); err != nil {
		s.log.Error().Err(err).Str("invoice_id", inv.ID).Msg("could not write audit row")
	}
}

// FinalizeInvoice moves a draft to CREATED so it can be sent
func (s *Service) FinalizeInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	inv, err := s.loadEFatura(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.GIBStatus != model.StatusDraft {
		return nil, model.NewTransitionError(inv.GIBStatus, model.StatusCreated)
	}

	before := snapshotOf(inv)
	inv.GIBStatus = model.StatusCreated
	err = s.commit(ctx, inv, model.StatusDraft, before, entry{
		action:  model.ActionStatusUpdate,
		outcome: model.OutcomeSuccess,
		message: "draft finalized",
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// SendInvoice signs a CREATED invoice and submits it once. Portal
// rejections are not errors: they come back in the result and are
// recorded on the invoice and in its log.
func (s *Service) SendInvoice(ctx context.Context, invoiceID string) (*model.Invoice, *gib.SendResult, error) {
	return s.send(ctx, invoiceID, s.sendPolicy)
}

func (s *Service) send(ctx context.Context, invoiceID string, policy gib.RetryPolicy) (*model.Invoice, *gib.SendResult, error) {
	inv, err := s.loadEFatura(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	if !inv.GIBStatus.CanTransitionTo(model.StatusSent) {
		return nil, nil, model.NewTransitionError(inv.GIBStatus, model.StatusSent)
	}

	portal, err := s.portalFor(ctx, inv.BusinessID)
	if err != nil {
		return nil, nil, err
	}

	log := s.log.With().
		Str("invoice_id", inv.ID).
		Str("invoice_uuid", inv.UUID).
		Str("invoice_number", inv.InvoiceNumber).
		Logger()

	signed, err := portal.SignXMLContent(inv.XMLContent)
	if err != nil {
		log.Error().Err(err).Msg("signing failed")
		s.recordFailure(ctx, inv, model.ActionSend, "SIGNING", err.Error())
		if errors.Is(err, gib.ErrNoCertificate) {
			return nil, nil, model.NewNotConfiguredError("no signing certificate configured")
		}
		return nil, nil, model.NewPortalFailure("SIGNING", "document could not be signed", err)
	}

	result := gib.SendWithRetry(ctx, portal, gib.SendRequest{
		InvoiceUUID:        inv.UUID,
		InvoiceNumber:      inv.InvoiceNumber,
		ETTN:               inv.ETTN,
		SignedXMLContent:   signed,
		ReceiverIdentifier: inv.CustomerTaxID,
	}, policy)

	before := snapshotOf(inv)
	now := s.now().UTC()
	e := entry{action: model.ActionSend}

	if result.Success {
		inv.GIBStatus = model.StatusSent
		inv.GIBTransactionID = result.TransactionID
		inv.GIBErrorCode = ""
		inv.GIBErrorMessage = ""
		inv.GIBStatusDate = &now
		inv.SentAt = &now
		inv.XMLContent = signed
		e.outcome = model.OutcomeSuccess
		e.message = "accepted for processing, transaction " + result.TransactionID
		log.Info().Str("transaction_id", result.TransactionID).Int("xml_bytes", len(signed)).Msg("invoice sent")
	} else {
		inv.GIBErrorCode = result.ErrorCode
		inv.GIBErrorMessage = result.ErrorMessage
		e.outcome = model.OutcomeFailure
		e.code = result.ErrorCode
		e.message = result.ErrorMessage
		log.Error().
			Str("error_code", result.ErrorCode).
			Bool("retryable", result.Retryable()).
			Msg("portal rejected invoice")
	}

	if err := s.commit(ctx, inv, model.StatusCreated, before, e); err != nil {
		return nil, result, err
	}
	return inv, result, nil
}

// RefreshStatus asks the portal for the state of a SENT invoice and
// applies it. Terminal invoices are returned as they are.
func (s *Service) RefreshStatus(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	inv, err := s.loadEFatura(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.GIBStatus.IsTerminal() {
		return inv, nil
	}
	if inv.GIBStatus != model.StatusSent {
		return nil, &model.ServiceError{
			Kind:    model.ErrInvalidTransition,
			Field:   "gibStatus",
			Message: fmt.Sprintf("invoice in %s has not been sent", inv.GIBStatus),
		}
	}

	portal, err := s.portalFor(ctx, inv.BusinessID)
	if err != nil {
		return nil, err
	}

	res, err := portal.QueryInvoiceStatus(ctx, inv.UUID)
	if err != nil {
		code := gib.ErrCodeSystem
		var pe *gib.PortalError
		if errors.As(err, &pe) {
			code = pe.Code
		}
		return nil, model.NewPortalFailure(code, "status query failed", err)
	}
	if res == nil {
		return nil, model.NewNotFoundError("invoiceUuid", "portal has no record of the invoice")
	}
	if res.Status == inv.GIBStatus || !inv.GIBStatus.CanTransitionTo(res.Status) {
		return inv, nil
	}

	before := snapshotOf(inv)
	inv.GIBStatus = res.Status
	if !res.StatusDate.IsZero() {
		statusDate := res.StatusDate.UTC()
		inv.GIBStatusDate = &statusDate
	}
	inv.GIBErrorCode = res.ErrorCode
	inv.GIBErrorMessage = res.ErrorMessage

	err = s.commit(ctx, inv, model.StatusSent, before, entry{
		action:  model.ActionStatusUpdate,
		outcome: model.OutcomeSuccess,
		code:    res.ErrorCode,
		message: res.ErrorMessage,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("invoice_id", inv.ID).Str("status", string(inv.GIBStatus)).Msg("portal status applied")
	return inv, nil
}

// CancelInvoice cancels a non-terminal invoice. A SENT invoice is
// cancelled at the portal first.
func (s *Service) CancelInvoice(ctx context.Context, invoiceID, reason string) (*model.Invoice, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, model.NewServiceValidationError("reason", "cancellation reason is required", nil)
	}

	inv, err := s.loadEFatura(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	from := inv.GIBStatus
	if !from.CanTransitionTo(model.StatusCancelled) {
		return nil, model.NewTransitionError(from, model.StatusCancelled)
	}

	if from == model.StatusSent {
		portal, err := s.portalFor(ctx, inv.BusinessID)
		if err != nil {
			return nil, err
		}
		if !portal.CancelInvoice(ctx, inv.UUID, reason) {
			s.recordFailure(ctx, inv, model.ActionCancel, gib.ErrCodeSystem, "portal refused cancellation: "+reason)
			return nil, model.NewPortalFailure(gib.ErrCodeSystem, "portal refused cancellation", nil)
		}
	}

	before := snapshotOf(inv)
	now := s.now().UTC()
	inv.GIBStatus = model.StatusCancelled
	inv.GIBStatusDate = &now

	err = s.commit(ctx, inv, from, before, entry{
		action:  model.ActionCancel,
		outcome: model.OutcomeSuccess,
		message: reason,
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// ArchiveInvoice moves a terminal invoice to ARCHIVED
func (s *Service) ArchiveInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	inv, err := s.loadEFatura(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	from := inv.GIBStatus
	if !from.CanTransitionTo(model.StatusArchived) {
		return nil, model.NewTransitionError(from, model.StatusArchived)
	}

	before := snapshotOf(inv)
	inv.GIBStatus = model.StatusArchived
	err = s.commit(ctx, inv, from, before, entry{
		action:  model.ActionArchive,
		outcome: model.OutcomeSuccess,
		message: "archived from " + string(from),
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// RestoreInvoice returns an archived invoice to the status recorded by its
// most recent successful non-archive log row, or ACCEPTED without one
func (s *Service) RestoreInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	inv, err := s.loadEFatura(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.GIBStatus != model.StatusArchived {
		return nil, &model.ServiceError{
			Kind:    model.ErrInvalidTransition,
			Field:   "gibStatus",
			Message: fmt.Sprintf("only archived invoices can be restored, invoice is %s", inv.GIBStatus),
		}
	}

	logs, err := s.store.ListLogs(ctx, inv.ID)
	if err != nil {
		return nil, err
	}

	before := snapshotOf(inv)
	inv.GIBStatus = statusBeforeArchive(logs)
	err = s.commit(ctx, inv, model.StatusArchived, before, entry{
		action:  model.ActionRestore,
		outcome: model.OutcomeSuccess,
		message: "restored to " + string(inv.GIBStatus),
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func statusBeforeArchive(logs []model.InvoiceLog) model.GIBStatus {
	for i := len(logs) - 1; i >= 0; i-- {
		l := logs[i]
		if l.Action == model.ActionArchive || l.Outcome != model.OutcomeSuccess {
			continue
		}
		if l.NewStatus.IsValid() && l.NewStatus != model.StatusArchived {
			return l.NewStatus
		}
	}
	return model.StatusAccepted
}

// TestPortalConnection checks the business's portal credentials
func (s *Service) TestPortalConnection(ctx context.Context, businessID string) (bool, error) {
	st, err := s.store.GetSettings(ctx, businessID)
	if errors.Is(err, store.ErrNotFound) {
		return false, model.NewNotConfiguredError("e-Fatura settings not found")
	}
	if err != nil {
		return false, err
	}
	if s.portals == nil {
		return false, model.NewNotConfiguredError("GIB portal is not configured")
	}
	portal, err := s.portals.PortalFor(st)
	if err != nil {
		return false, err
	}
	return portal.TestConnection(ctx), nil
}
