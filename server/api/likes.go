package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kansha-app/kansha/ledger"
	"github.com/kansha-app/kansha/model"
	"github.com/kansha-app/kansha/notifier"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// LikePost records a paid endorsement on a post. The 1 point cost is split
// evenly across the distinct set {author, recipient}: 0.5 each normally, the
// full point to the single party on a self-thanks. Repeat endorsements by
// the same user are independent paid actions.
func (s *Server) LikePost(c *gin.Context) {
	endorserId := callerId(c)
	postId := c.Param("id")

	var post model.Post
	if res := s.DB.Where("id = ?", postId).First(&post); res.RowsAffected != 1 {
		writeError(c, errors.Wrapf(ledger.ErrPostNotFound, "post %s", postId))
		return
	}
	var endorser model.User
	if res := s.DB.Where("id = ?", endorserId).First(&endorser); res.RowsAffected != 1 {
		writeError(c, errors.Wrap(ledger.ErrUserNotFound, "endorser"))
		return
	}

	beneficiaries := []string{post.AuthorID}
	if post.RecipientID != post.AuthorID {
		beneficiaries = append(beneficiaries, post.RecipientID)
	}
	share := ledger.LikeCost / float64(len(beneficiaries))

	deltas := []ledger.Delta{
		{UserID: endorserId, Amount: -ledger.LikeCost, Type: model.TransactionTypeLikeSend, PostID: &post.Id},
	}
	for _, beneficiary := range beneficiaries {
		deltas = append(deltas, ledger.Delta{
			UserID: beneficiary,
			Amount: share,
			Type:   model.TransactionTypeLikeReceive,
			PostID: &post.Id,
		})
	}

	like := model.Like{
		Id:     uuid.New().String(),
		UserID: endorserId,
		PostID: post.Id,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&like).Error; err != nil {
			return errors.Wrap(err, "create like")
		}
		// Relative increment, concurrent endorsements must not lose counts.
		if err := tx.Model(&model.Post{}).Where("id = ?", post.Id).
			UpdateColumn("good_count", gorm.Expr("good_count + 1")).Error; err != nil {
			return errors.Wrap(err, "increment good count")
		}
		return ledger.ApplyTx(tx, deltas)
	})
	if err != nil {
		writeError(c, err)
		return
	}

	for _, beneficiary := range beneficiaries {
		if beneficiary == endorserId {
			continue
		}
		s.Bus.Publish(&notifier.Event{
			RecipientID: beneficiary,
			SenderID:    &endorserId,
			Type:        notifier.TypeLikeReceived,
			Title:       "投稿にグッドが付きました！",
			Message:     fmt.Sprintf("%sがあなたの感謝にグッドしました", endorser.Name),
			PostID:      &post.Id,
		})
	}

	c.JSON(http.StatusCreated, likeSummary{
		Id:        like.Id,
		UserID:    like.UserID,
		CreatedAt: like.CreatedAt,
	})
}
