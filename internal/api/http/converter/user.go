package converter

import (
	"github.com/immxrtalbeast/peercall/internal/domain"
)

type UserResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func UsersToApi(users []domain.UserSummary) []UserResponse {
	result := make([]UserResponse, 0, len(users))
	for _, user := range users {
		result = append(result, UserResponse{
			ID:   user.ID,
			Name: user.Name,
		})
	}
	return result
}
