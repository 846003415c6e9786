package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	money "github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/decimal"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/tax"
)

func (s *Server) handleValidateTaxNumber(c *gin.Context) {
	var req TaxNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	c.JSON(http.StatusOK, tax.ValidateTurkishTaxNumber(req.Identifier))
}

func (s *Server) handleCalculateVAT(c *gin.Context) {
	var req VATRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	precision := money.AmountPlaces
	if req.Precision != nil {
		precision = *req.Precision
	}
	calc, err := tax.CalculateTurkishVAT(req.NetAmount, req.VATRate, precision)
	if err != nil {
		resp := ErrorResponse{Error: err.Error()}
		var taxErr *tax.TaxError
		if errors.As(err, &taxErr) {
			resp.Error = taxErr.Message
			resp.Code = taxErr.Code
			resp.Field = taxErr.Field
		}
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	c.JSON(http.StatusOK, calc)
}

func (s *Server) handleLatePaymentInterest(c *gin.Context) {
	var req InterestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	if req.Amount.IsNegative() {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "amount must not be negative", Field: "amount"})
		return
	}
	rate := decimal.NewFromInt(tax.DefaultLatePaymentRate)
	if req.AnnualRate != nil {
		rate = *req.AnnualRate
	}
	c.JSON(http.StatusOK, InterestResponse{
		Amount:     req.Amount,
		AnnualRate: rate,
		Interest:   tax.CalculateLatePaymentInterest(req.Amount, req.DaysPastDue, rate),
	})
}

func (s *Server) handleValidateAddress(c *gin.Context) {
	var req tax.Address
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	c.JSON(http.StatusOK, tax.ValidateTurkishAddress(req))
}

func (s *Server) handleVerify(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, "failed to read request body", err)
		return
	}

	if len(body) == 0 {
		badRequest(c, "empty request body", nil)
		return
	}

	if !s.verifier.CanVerify(body) {
		badRequest(c, "unsupported file format for signature verification", nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	result, err := s.verifier.Verify(ctx, body)
	if err != nil {
		var sigErr *signature.SignatureError
		resp := ErrorResponse{Error: "signature verification failed", Details: err.Error()}
		if errors.As(err, &sigErr) {
			resp.Code = sigErr.Code
		}
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}

	if result.Valid {
		c.JSON(http.StatusOK, result)
	} else {
		c.JSON(http.StatusUnprocessableEntity, result)
	}
}
