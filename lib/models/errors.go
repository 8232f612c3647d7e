package models

import "errors"

var (
	ErrAuthRequired   = errors.New("authentication required")
	ErrSubscriberOnly = errors.New("feature is only available to subscribers")
	ErrNotInWishlist  = errors.New("deal is not in wishlist")
	ErrDealNotFound   = errors.New("deal not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrRejected       = errors.New("rejected by server")
)
