package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sku-codemong/codemong-Backend-02/internal/server/http/middleware"
)

func (h *Handler) SendFriendRequest(c *gin.Context) {
	uid, _ := middleware.UserID(c)
	b, err := readBody(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	target, err := parseFriendRequest(b)
	if err != nil {
		h.writeError(c, err)
		return
	}

	req, err := h.friends.SendRequest(c.Request.Context(), uid, target)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "request": req})
}

func (h *Handler) IncomingFriendRequests(c *gin.Context) {
	uid, _ := middleware.UserID(c)
	list, err := h.friends.ListIncoming(c.Request.Context(), uid)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "requests": list})
}

func (h *Handler) RespondFriendRequest(c *gin.Context) {
	uid, _ := middleware.UserID(c)
	id, err := parsePathID(c, "id", "BAD_REQUEST_ID")
	if err != nil {
		h.writeError(c, err)
		return
	}
	b, err := readBody(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	action, _ := b.string("action")

	res, err := h.friends.Respond(c.Request.Context(), uid, id, action)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := gin.H{"ok": true, "result": res.Result}
	if res.Friend != nil {
		out["friend"] = res.Friend
	}
	c.JSON(http.StatusOK, out)
}
