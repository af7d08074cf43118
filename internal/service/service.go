package service

import (
	"github.com/immxrtalbeast/peercall/internal/domain"
)

type SignalingInteractor interface {
	Connect(name string) (*domain.User, error)
	Disconnect(userID string)
	HandleSignal(senderID string, message domain.SignalMessage)
	ListUsers() []domain.UserSummary
}
