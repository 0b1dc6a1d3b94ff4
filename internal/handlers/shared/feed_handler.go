package handlers

import (
	"bakehouse/pkg/logger"
	"bakehouse/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// FeedHandler upgrades authenticated requests to the live order feed.
type FeedHandler struct {
	ws     *websocket.Handler
	logger *logger.Logger
}

func NewFeedHandler(ws *websocket.Handler, log *logger.Logger) *FeedHandler {
	return &FeedHandler{
		ws:     ws,
		logger: log.WithField("handler", "feed"),
	}
}

// CustomerFeed streams updates for the caller's own orders
func (h *FeedHandler) CustomerFeed(c *gin.Context) {
	customerID, ok := RequireCustomer(c)
	if !ok {
		return
	}
	h.serve(c, customerID.Hex(), []string{websocket.CustomerRoom(customerID.Hex())})
}

// AdminFeed streams every order event to staff
func (h *FeedHandler) AdminFeed(c *gin.Context) {
	customerID, ok := RequireCustomer(c)
	if !ok {
		return
	}
	h.serve(c, customerID.Hex(), []string{websocket.RoomAdmins})
}

func (h *FeedHandler) serve(c *gin.Context, clientID string, rooms []string) {
	if err := h.ws.Serve(c.Writer, c.Request, clientID, rooms); err != nil {
		// the upgrader has already written the HTTP error
		h.logger.WithError(err).WithField("client_id", clientID).Debug("Websocket upgrade failed")
	}
}
