package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/kansha-app/kansha/ledger"
	"github.com/kansha-app/kansha/model"
)

type newUserInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

// UserSummary is the public shape of a user embedded in API responses.
type UserSummary struct {
	Id         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	AvatarUrl  string `json:"avatarUrl"`
}

type currentUserResponse struct {
	UserSummary
	Email         string  `json:"email"`
	PointsBalance float64 `json:"pointsBalance"`
}

// CreateUser registers the caller on first authentication with the initial
// allowance. Calling it again for an existing id is a no-op returning the
// stored user, so the identity provider can call it on every sign-in.
func (s *Server) CreateUser(c *gin.Context) {
	userId := callerId(c)

	var input newUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	var user model.User
	res := s.DB.Model(&model.User{}).Where("id = ?", userId).First(&user)
	if res.RowsAffected == 0 {
		// The initial balance is set at creation, it is not a ledger
		// transfer: there is no counterparty to conserve against.
		user = model.User{
			Id:            userId,
			Name:          input.Name,
			Email:         input.Email,
			Department:    input.Department,
			PointsBalance: ledger.InitialAllocation,
		}
		if err := s.DB.Create(&user).Error; err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, userToCurrentResponse(&user))
		return
	}

	c.JSON(http.StatusOK, userToCurrentResponse(&user))
}

// ListUsers returns everyone who can receive thanks, for the recipient
// picker.
func (s *Server) ListUsers(c *gin.Context) {
	var users []model.User
	if err := s.DB.Order("name").Find(&users).Error; err != nil {
		writeError(c, err)
		return
	}

	summaries := make([]UserSummary, 0, len(users))
	for i := range users {
		var summary UserSummary
		copier.Copy(&summary, &users[i])
		summaries = append(summaries, summary)
	}
	c.JSON(http.StatusOK, summaries)
}

// CurrentUser returns the caller including the live points balance.
func (s *Server) CurrentUser(c *gin.Context) {
	var user model.User
	res := s.DB.Where("id = ?", callerId(c)).First(&user)
	if res.RowsAffected != 1 {
		writeError(c, ledger.ErrUserNotFound)
		return
	}

	c.JSON(http.StatusOK, userToCurrentResponse(&user))
}

func userToCurrentResponse(user *model.User) *currentUserResponse {
	var resp currentUserResponse
	copier.Copy(&resp, user)
	return &resp
}
