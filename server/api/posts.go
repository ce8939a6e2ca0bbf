package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/kansha-app/kansha/ledger"
	"github.com/kansha-app/kansha/model"
	"github.com/kansha-app/kansha/notifier"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	defaultPostsPageSize = 20
	maxPostsPageSize     = 100
)

type newPostInput struct {
	Content     string `json:"content"`
	Points      int    `json:"points"`
	RecipientID string `json:"recipientId"`
}

type likeSummary struct {
	Id        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type postResponse struct {
	Id        string        `json:"id"`
	Content   string        `json:"content"`
	Points    int           `json:"points"`
	GoodCount int           `json:"goodCount"`
	CreatedAt time.Time     `json:"createdAt"`
	Author    UserSummary   `json:"author"`
	Recipient UserSummary   `json:"recipient"`
	Likes     []likeSummary `json:"likes"`
}

// ListPosts returns the public timeline, newest first.
func (s *Server) ListPosts(c *gin.Context) {
	page, limit := pagination(c, defaultPostsPageSize, maxPostsPageSize)

	var posts []model.Post
	err := s.DB.Preload("Author").Preload("Recipient").Preload("Likes").
		Order("cursor desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		writeError(c, err)
		return
	}

	responses := make([]postResponse, 0, len(posts))
	for i := range posts {
		var resp postResponse
		copier.Copy(&resp, &posts[i])
		responses = append(responses, resp)
	}
	c.JSON(http.StatusOK, responses)
}

// CreatePost publishes a thanks message and moves the attached points from
// the author to the recipient in one atomic unit. The recipient notification
// is published after commit, best effort.
func (s *Server) CreatePost(c *gin.Context) {
	authorId := callerId(c)

	var input newPostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if input.Content == "" || input.RecipientID == "" {
		writeError(c, errors.Wrap(ledger.ErrInvalidInput, "content and recipientId are required"))
		return
	}
	if !ledger.IsAllowedPoints(input.Points) {
		writeError(c, errors.Wrapf(ledger.ErrInvalidPoints, "%d", input.Points))
		return
	}

	var author model.User
	if res := s.DB.Where("id = ?", authorId).First(&author); res.RowsAffected != 1 {
		writeError(c, errors.Wrap(ledger.ErrUserNotFound, "sender"))
		return
	}
	var recipient model.User
	if res := s.DB.Where("id = ?", input.RecipientID).First(&recipient); res.RowsAffected != 1 {
		writeError(c, errors.Wrap(ledger.ErrUserNotFound, "recipient"))
		return
	}

	// A self-thanks is permitted: the transfer is net zero per user and the
	// ledger still records both legs.
	post := model.Post{
		Id:          uuid.New().String(),
		Content:     input.Content,
		Points:      input.Points,
		AuthorID:    authorId,
		RecipientID: input.RecipientID,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return errors.Wrap(err, "create post")
		}
		return ledger.ApplyTx(tx, []ledger.Delta{
			{UserID: authorId, Amount: -float64(input.Points), Type: model.TransactionTypePostSend, PostID: &post.Id},
			{UserID: input.RecipientID, Amount: float64(input.Points), Type: model.TransactionTypePostReceive, PostID: &post.Id},
		})
	})
	if err != nil {
		writeError(c, err)
		return
	}

	s.Bus.Publish(&notifier.Event{
		RecipientID: input.RecipientID,
		SenderID:    &authorId,
		Type:        notifier.TypePostReceived,
		Title:       "新しい感謝が届きました！",
		Message:     fmt.Sprintf("%sからあなたに%dポイントの感謝が送られました", author.Name, input.Points),
		PostID:      &post.Id,
	})

	var resp postResponse
	copier.Copy(&resp, &post)
	copier.Copy(&resp.Author, &author)
	copier.Copy(&resp.Recipient, &recipient)
	c.JSON(http.StatusCreated, resp)
}

// pagination reads page/limit query params with sane bounds.
func pagination(c *gin.Context, defaultLimit int, maxLimit int) (page int, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
