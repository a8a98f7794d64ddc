package handlers

import (
	"camionback/middleware"
)

// HandlerBundle groups all endpoint handlers for route registration.
type HandlerBundle struct {
	Auth          *middleware.Authenticator
	AuthHandler   *AuthHandler
	Requests      *RequestHandler
	Offers        *OfferHandler
	Coordinator   *CoordinatorHandler
	Admin         *AdminHandler
	Inbox         *InboxHandler
	Transporters  *TransporterHandler
	Public        *PublicHandler
	Storage       *StorageHandler
	AllowOrigins  []string
	RatePerMinute int
}
