package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/kansha-app/kansha/model"
)

const (
	defaultTransactionsPageSize = 100
	maxTransactionsPageSize     = 500
)

type transactionPostSummary struct {
	Id      string `json:"id"`
	Content string `json:"content"`
	Points  int    `json:"points"`
}

type transactionResponse struct {
	Id        string                  `json:"id"`
	Amount    float64                 `json:"amount"`
	Type      model.TransactionType   `json:"type"`
	CreatedAt time.Time               `json:"createdAt"`
	Post      *transactionPostSummary `json:"post,omitempty"`
}

// ListTransactions returns the caller's ledger history, newest first. A
// userId query param other than the caller's own id is rejected: the audit
// trail is self-only.
func (s *Server) ListTransactions(c *gin.Context) {
	userId := c.DefaultQuery("userId", callerId(c))
	if userId != callerId(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "can only read your own transactions"})
		return
	}

	page, limit := pagination(c, defaultTransactionsPageSize, maxTransactionsPageSize)

	var transactions []model.PointTransaction
	err := s.DB.Preload("Post").
		Where("user_id = ?", userId).
		Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&transactions).Error
	if err != nil {
		writeError(c, err)
		return
	}

	responses := make([]transactionResponse, 0, len(transactions))
	for i := range transactions {
		var resp transactionResponse
		copier.Copy(&resp, &transactions[i])
		responses = append(responses, resp)
	}
	c.JSON(http.StatusOK, responses)
}
