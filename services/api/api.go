// Package api is the json api called by the staff and seller front-ends.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"payform-backend/internal/components/assert"
	"payform-backend/internal/components/telemetry"
	"payform-backend/lib/scrapers/auctionsite"
	"payform-backend/services/paylink"
	"payform-backend/services/paymentform"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	report_authenticate = "api.authenticate"
	report_send_link    = "api.send-payment-link"
	report_submit       = "api.payment-details"
)

// the base64 of a check image at the size limit plus the other fields
const maxSubmissionBody = 8 << 20

// LinkIssuer is the staff and seller facing side of payment links.
type LinkIssuer interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
	Staff(token string) (paylink.StaffSession, error)
	IssueLink(ctx context.Context, staffToken string, query auctionsite.StatementQuery) (paylink.IssuedLink, error)
	PaymentDetails(ctx context.Context, token string) (paylink.PaymentLink, error)
}

// PaymentForms accepts seller submissions.
type PaymentForms interface {
	Submit(ctx context.Context, token string, submission paymentform.Submission) (paymentform.Receipt, error)
}

type Options struct {
	Links         LinkIssuer
	Forms         PaymentForms
	AllowedOrigin string
	ServiceName   string
	Tel           telemetry.API
}

type Handler struct {
	links LinkIssuer
	forms PaymentForms
	tel   telemetry.API
}

func NewHandler(links LinkIssuer, forms PaymentForms, tel telemetry.API) Handler {
	assert.NotNil(links, "links")
	assert.NotNil(forms, "forms")
	assert.NotNil(tel, "tel")
	return Handler{links: links, forms: forms, tel: tel}
}

// NewRouter creates the gin engine serving the api.
func NewRouter(opts Options) *gin.Engine {
	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = "payform"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(requestLogger())
	r.Use(allowOrigin(opts.AllowedOrigin))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := NewHandler(opts.Links, opts.Forms, opts.Tel)
	h.RegisterRoutes(r.Group("/api"))
	// paths the front-end used when it was deployed as serverless functions
	h.RegisterRoutes(r.Group("/.netlify/functions"))
	return r
}

func (h Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/authenticate", h.Authenticate)
	rg.POST("/send-payment-link", h.SendPaymentLink)
	rg.GET("/get-payment-details", h.GetPaymentDetails)
	rg.POST("/payment-details", h.SubmitPaymentDetails)
	rg.OPTIONS("/*any", func(c *gin.Context) { c.Status(http.StatusNoContent) })
}

type authenticateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type staffUser struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type authenticateResponse struct {
	Message        string    `json:"message"`
	StaffAuthToken string    `json:"staffAuthToken"`
	Token          string    `json:"token"`
	ExpiresAt      time.Time `json:"expiresAt"`
	User           staffUser `json:"user"`
}

func badJson(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Message: fmt.Sprintf("Invalid request body: %s", err.Error())})
}

func (h Handler) Authenticate(c *gin.Context) {
	var req authenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJson(c, err)
		return
	}

	token, err := h.links.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		status, res := staffError(err)
		if status == http.StatusInternalServerError {
			h.tel.ReportBroken(report_authenticate, err)
		}
		c.JSON(status, res)
		return
	}
	staff, err := h.links.Staff(token)
	if err != nil {
		h.tel.ReportBroken(report_authenticate, err)
		c.JSON(http.StatusInternalServerError, errorResponse{Message: msgServerError})
		return
	}

	c.JSON(http.StatusOK, authenticateResponse{
		Message:        "Authentication successful",
		StaffAuthToken: token,
		Token:          token,
		ExpiresAt:      staff.ExpiresAt.UTC(),
		User:           staffUser{Username: staff.Username, Role: staff.Role},
	})
}

type sendPaymentLinkRequest struct {
	StaffAuthToken string `json:"staffAuthToken"`
	AuctionCode    string `json:"auctionCode"`
	SellerId       string `json:"sellerId"`
}

type sendPaymentLinkResponse struct {
	Message   string    `json:"message"`
	Recipient string    `json:"recipient"`
	ShareUrl  string    `json:"shareUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(c *gin.Context) string {
	const prefix = "Bearer "
	header := c.GetHeader("Authorization")
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func (h Handler) SendPaymentLink(c *gin.Context) {
	var req sendPaymentLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJson(c, err)
		return
	}
	token := req.StaffAuthToken
	if token == "" {
		token = bearerToken(c)
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, errorResponse{Message: msgSessionExpired})
		return
	}

	link, err := h.links.IssueLink(c.Request.Context(), token, auctionsite.StatementQuery{
		AuctionCode: req.AuctionCode,
		SellerId:    req.SellerId,
	})
	if errors.Is(err, paylink.ErrNotifyFailed) {
		h.tel.ReportWarning(report_send_link, req.AuctionCode, req.SellerId, err)
		c.JSON(http.StatusBadGateway, errorResponse{
			Message:  "The payment link was created but the email could not be sent, please send the link to the seller yourself.",
			ShareUrl: link.ShareUrl,
		})
		return
	}
	if err != nil {
		status, res := staffError(err)
		if status == http.StatusInternalServerError {
			h.tel.ReportBroken(report_send_link, err)
		}
		c.JSON(status, res)
		return
	}

	c.JSON(http.StatusOK, sendPaymentLinkResponse{
		Message:   fmt.Sprintf("Payment link sent to %s", link.NotifiedEmail),
		Recipient: link.NotifiedEmail,
		ShareUrl:  link.ShareUrl,
		ExpiresAt: link.ExpiresAt.UTC(),
	})
}

type paymentDetailsResponse struct {
	SellerName     string      `json:"sellerName"`
	SellerEmail    string      `json:"sellerEmail"`
	AuctionDetails string      `json:"auctionDetails"`
	StatementDate  string      `json:"statementDate"`
	AmountDue      json.Number `json:"amountDue"`
	AuctionCode    string      `json:"auctionCode"`
	SellerId       string      `json:"sellerId"`
	ExpiresAt      time.Time   `json:"expiresAt"`
}

func (h Handler) GetPaymentDetails(c *gin.Context) {
	link, err := h.links.PaymentDetails(c.Request.Context(), c.Query("token"))
	if err != nil {
		status, res := sellerError(err)
		c.JSON(status, res)
		return
	}

	c.JSON(http.StatusOK, paymentDetailsResponse{
		SellerName:     link.Seller.Name,
		SellerEmail:    link.Seller.Email,
		AuctionDetails: link.Seller.AuctionTitle,
		StatementDate:  link.Seller.StatementDate,
		AmountDue:      json.Number(link.Seller.TotalDue.StringFixed(2)),
		AuctionCode:    link.Query.AuctionCode,
		SellerId:       link.Query.SellerId,
		ExpiresAt:      link.ExpiresAt.UTC(),
	})
}

type submitRequest struct {
	Token string `json:"token"`
	paymentform.Submission
}

type submitResponse struct {
	Message          string `json:"message"`
	ConfirmationCode string `json:"confirmationCode"`
}

func (h Handler) SubmitPaymentDetails(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSubmissionBody)

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Message: "The submission is too large."})
			return
		}
		badJson(c, err)
		return
	}
	token := req.Token
	if token == "" {
		token = c.Query("token")
	}

	receipt, err := h.forms.Submit(c.Request.Context(), token, req.Submission)
	if err != nil {
		status, res := sellerError(err)
		if status == http.StatusInternalServerError {
			h.tel.ReportBroken(report_submit, err)
		}
		c.JSON(status, res)
		return
	}

	c.JSON(http.StatusOK, submitResponse{
		Message:          "Thank you, your payment details were received.",
		ConfirmationCode: receipt.ConfirmationCode,
	})
}
