package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dkeye/Talk/internal/app"
	"github.com/dkeye/Talk/internal/domain"
	"github.com/gin-gonic/gin"
)

type accessRequest struct {
	UserID domain.UserID `json:"userId" binding:"required"`
}

// userList accepts a JSON array of ids, or that array encoded as a string
// (what multipart-minded clients send).
type userList []domain.UserID

func (l *userList) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		b = []byte(s)
	}
	var ids []domain.UserID
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	*l = ids
	return nil
}

type groupRequest struct {
	Name  string   `json:"name" binding:"required,max=64"`
	Users userList `json:"users" binding:"required"`
}

type addUserRequest struct {
	ChatID domain.ChatID `json:"chatId" binding:"required"`
	UserID domain.UserID `json:"userId" binding:"required"`
}

type messageRequest struct {
	ChatID  domain.ChatID `json:"chatId" binding:"required"`
	Content string        `json:"content" binding:"required"`
	File    *domain.File  `json:"file"`
}

func (h *handlers) accessChat(c *gin.Context) {
	var req accessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	chat, err := h.Chats.Access(c.Request.Context(), currentUser(c), req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *handlers) fetchChats(c *gin.Context) {
	chats, err := h.Chats.List(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

func (h *handlers) createGroup(c *gin.Context) {
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	chat, err := h.Chats.CreateGroup(c.Request.Context(), currentUser(c), req.Name, req.Users)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *handlers) fetchGroups(c *gin.Context) {
	chats, err := h.Chats.Groups(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

func (h *handlers) addToGroup(c *gin.Context) {
	var req addUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	chat, err := h.Chats.AddUser(c.Request.Context(), req.ChatID, req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *handlers) deleteGroup(c *gin.Context) {
	chat, err := h.Chats.DeleteGroup(c.Request.Context(), currentUser(c), chatParam(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *handlers) sendMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	msg, err := h.Messenger.Post(c.Request.Context(), app.IncomingMessage{
		ChatID:  req.ChatID,
		Sender:  currentUser(c),
		Content: req.Content,
		File:    req.File,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *handlers) allMessages(c *gin.Context) {
	msgs, err := h.Chats.History(c.Request.Context(), chatParam(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *handlers) lastMessage(c *gin.Context) {
	msg, err := h.Chats.Last(c.Request.Context(), chatParam(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// chatParam drops anything after '&'; some clients glue query fragments onto the id.
func chatParam(c *gin.Context) domain.ChatID {
	id, _, _ := strings.Cut(c.Param("chatId"), "&")
	return domain.ChatID(id)
}
