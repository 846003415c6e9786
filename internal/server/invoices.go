package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/efatura"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	xmldsig "github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature/xml"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/ubl"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func (s *Server) handleCreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	inv, err := s.svc.CreateInvoiceFromOrder(c.Request.Context(), efatura.CreateRequest{
		BusinessID:    c.Param("businessId"),
		OrderID:       req.OrderID,
		CustomerTaxID: req.CustomerTaxID,
		AutoSend:      req.AutoSend,
		Draft:         req.Draft,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invoiceResponse(inv))
}

func (s *Server) handleListInvoices(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badRequest(c, "invalid query", err)
		return
	}

	page, err := s.svc.GetInvoices(c.Request.Context(), filter)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func parseFilter(c *gin.Context) (store.InvoiceFilter, error) {
	filter := store.InvoiceFilter{
		BusinessID:     c.Param("businessId"),
		CustomerID:     c.Query("customerId"),
		OrderID:        c.Query("orderId"),
		NumberContains: c.Query("number"),
		Limit:          defaultPageSize,
	}

	for _, raw := range c.QueryArray("status") {
		for _, st := range strings.Split(raw, ",") {
			if st = strings.TrimSpace(st); st != "" {
				filter.Statuses = append(filter.Statuses, model.GIBStatus(strings.ToUpper(st)))
			}
		}
	}

	var err error
	if filter.From, err = queryTime(c, "from", false); err != nil {
		return filter, err
	}
	if filter.To, err = queryTime(c, "to", true); err != nil {
		return filter, err
	}
	if filter.Limit, err = queryInt(c, "limit", defaultPageSize); err != nil {
		return filter, err
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset, err = queryInt(c, "offset", 0); err != nil {
		return filter, err
	}
	return filter, nil
}

// queryTime accepts RFC 3339 or a bare date. A bare "to" date covers the
// whole day.
func queryTime(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: expected YYYY-MM-DD or RFC 3339, got %q", key, raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return n, nil
}

func (s *Server) handleInvoiceStats(c *gin.Context) {
	days, err := queryInt(c, "days", efatura.DefaultStatsDays)
	if err != nil {
		badRequest(c, "invalid query", err)
		return
	}
	stats, err := s.svc.GetInvoiceStats(c.Request.Context(), c.Param("businessId"), days)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleCleanupDrafts(c *gin.Context) {
	days, err := queryInt(c, "olderThanDays", efatura.DefaultDraftRetentionDays)
	if err != nil {
		badRequest(c, "invalid query", err)
		return
	}
	n, err := s.svc.CleanupDraftInvoices(c.Request.Context(), c.Param("businessId"), days)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, CleanupResponse{Deleted: n})
}

func (s *Server) handlePortalTest(c *gin.Context) {
	ok, err := s.svc.TestPortalConnection(c.Request.Context(), c.Param("businessId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, PortalTestResponse{Connected: ok})
}

func (s *Server) handleEligibility(c *gin.Context) {
	e, err := s.svc.IsOrderEligibleForInvoice(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) handleGetInvoice(c *gin.Context) {
	inv, err := s.svc.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoiceResponse(inv))
}

func (s *Server) handleGetInvoiceXML(c *gin.Context) {
	inv, err := s.svc.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if inv.XMLContent == "" {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "invoice has no XML document"})
		return
	}
	if c.Query("download") != "" {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xml"`, inv.InvoiceNumber))
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(inv.XMLContent))
}

func (s *Server) handleGetInvoiceLogs(c *gin.Context) {
	logs, err := s.svc.GetInvoiceLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if logs == nil {
		logs = []model.InvoiceLog{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (s *Server) handleFinalize(c *gin.Context) {
	s.lifecycle(c, s.svc.FinalizeInvoice)
}

func (s *Server) handleSend(c *gin.Context) {
	inv, res, err := s.svc.SendInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	resp := SendResponse{
		Invoice:       inv,
		Success:       res.Success,
		TransactionID: res.TransactionID,
		ErrorCode:     res.ErrorCode,
		ErrorMessage:  res.ErrorMessage,
	}
	if !res.Success {
		resp.Retryable = res.Retryable()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRefreshStatus(c *gin.Context) {
	s.lifecycle(c, s.svc.RefreshStatus)
}

func (s *Server) handleCancel(c *gin.Context) {
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "a cancellation reason is required", err)
		return
	}
	inv, err := s.svc.CancelInvoice(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoiceResponse(inv))
}

func (s *Server) handleArchive(c *gin.Context) {
	s.lifecycle(c, s.svc.ArchiveInvoice)
}

func (s *Server) handleRestore(c *gin.Context) {
	s.lifecycle(c, s.svc.RestoreInvoice)
}

type lifecycleFunc func(ctx context.Context, invoiceID string) (*model.Invoice, error)

func (s *Server) lifecycle(c *gin.Context, fn lifecycleFunc) {
	inv, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoiceResponse(inv))
}

func invoiceResponse(inv *model.Invoice) InvoiceResponse {
	resp := InvoiceResponse{Invoice: inv}
	if inv.XMLContent == "" {
		return resp
	}
	doc, err := ubl.Parse([]byte(inv.XMLContent))
	if err != nil {
		return resp
	}
	_, sigErr := xmldsig.NewSignatureExtractor().Extract([]byte(inv.XMLContent))
	resp.Document = &DocumentSummary{
		ID:              doc.ID,
		UUID:            doc.UUID,
		ETTN:            doc.ETTN(),
		ProfileID:       doc.ProfileID,
		InvoiceTypeCode: doc.InvoiceTypeCode,
		IssueDate:       doc.IssueDate,
		LineCount:       len(doc.InvoiceLines),
		PayableAmount:   doc.LegalMonetaryTotal.PayableAmount.Value,
		Currency:        doc.LegalMonetaryTotal.PayableAmount.CurrencyID,
		Signed:          sigErr == nil,
	}
	return resp
}
